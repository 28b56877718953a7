package canopy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// emitterFile is the YAML form of an EmitterConfig. Frequency, when set,
// overrides Interval.
type emitterFile struct {
	Capacity   *int      `yaml:"capacity"`
	Rate       *int      `yaml:"rate"`
	Interval   *Param    `yaml:"interval"`
	Frequency  *float64  `yaml:"frequency,omitempty"`
	Radius     *Param    `yaml:"radius"`
	Direction  *Param    `yaml:"direction"`
	Speed      *Param    `yaml:"speed"`
	Force      *Param    `yaml:"force"`
	Gravity    *Param    `yaml:"gravity"`
	Wind       *Param    `yaml:"wind"`
	Friction   *Param    `yaml:"friction"`
	Rotation   *Param    `yaml:"rotation"`
	Growth     *Param    `yaml:"growth"`
	Fade       *Param    `yaml:"fade"`
	Size       *Param    `yaml:"size"`
	Lifespan   *Param    `yaml:"lifespan"`
	Spectrum   *Spectrum `yaml:"spectrum"`
	Order      *Order    `yaml:"order"`
	WorldSpace *bool     `yaml:"world_space"`
	Round      *bool     `yaml:"round"`
	Seed       *uint64   `yaml:"seed"`
}

// LoadEmitterConfig reads an emitter preset from a YAML file. Keys missing
// from the file keep their DefaultEmitterConfig values.
func LoadEmitterConfig(path string) (EmitterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EmitterConfig{}, fmt.Errorf("canopy: load emitter config: %w", err)
	}
	cfg, err := ParseEmitterConfig(data)
	if err != nil {
		return EmitterConfig{}, fmt.Errorf("%w (%s)", err, path)
	}
	return cfg, nil
}

// ParseEmitterConfig decodes a YAML emitter preset. Unknown keys are errors.
//
// Params accept a number or a two element [min, max] list. Colors accept
// "#rrggbb", "#rrggbbaa", or a [r, g, b] / [r, g, b, a] list in [0, 1].
//
//	capacity: 500
//	frequency: 120
//	direction: [250, 290]
//	speed: [60, 140]
//	gravity: 150
//	lifespan: [0.8, 1.6]
//	spectrum: {from: "#ffcc33", to: [1, 0.2, 0, 0]}
//	order: newest-first
func ParseEmitterConfig(data []byte) (EmitterConfig, error) {
	cfg := DefaultEmitterConfig()
	var f emitterFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return EmitterConfig{}, fmt.Errorf("canopy: parse emitter config: %w", err)
	}
	f.apply(&cfg)
	if f.Frequency != nil {
		if !(*f.Frequency > 0) {
			return EmitterConfig{}, fmt.Errorf("canopy: parse emitter config: frequency %g: %w", *f.Frequency, ErrInvalidArgument)
		}
		cfg.Interval = Fixed(1 / *f.Frequency)
	}
	if cfg.Capacity <= 0 {
		return EmitterConfig{}, fmt.Errorf("canopy: parse emitter config: capacity %d: %w", cfg.Capacity, ErrInvalidArgument)
	}
	return cfg, nil
}

func (f *emitterFile) apply(cfg *EmitterConfig) {
	setIf(&cfg.Capacity, f.Capacity)
	setIf(&cfg.Rate, f.Rate)
	setIf(&cfg.Interval, f.Interval)
	setIf(&cfg.Radius, f.Radius)
	setIf(&cfg.Direction, f.Direction)
	setIf(&cfg.Speed, f.Speed)
	setIf(&cfg.Force, f.Force)
	setIf(&cfg.Gravity, f.Gravity)
	setIf(&cfg.Wind, f.Wind)
	setIf(&cfg.Friction, f.Friction)
	setIf(&cfg.Rotation, f.Rotation)
	setIf(&cfg.Growth, f.Growth)
	setIf(&cfg.Fade, f.Fade)
	setIf(&cfg.Size, f.Size)
	setIf(&cfg.Lifespan, f.Lifespan)
	if f.Spectrum != nil {
		cfg.Spectrum = *f.Spectrum
		if cfg.Spectrum.To == ColorNone {
			cfg.Spectrum.To = cfg.Spectrum.From
		}
	}
	setIf(&cfg.Order, f.Order)
	setIf(&cfg.WorldSpace, f.WorldSpace)
	setIf(&cfg.Round, f.Round)
	setIf(&cfg.Seed, f.Seed)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// UnmarshalYAML decodes a number as Fixed and a [min, max] list as Between.
func (p *Param) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		*p = Fixed(v)
		return nil
	case yaml.SequenceNode:
		var vs []float64
		if err := node.Decode(&vs); err != nil {
			return err
		}
		if len(vs) != 2 {
			return fmt.Errorf("line %d: range needs 2 values, got %d", node.Line, len(vs))
		}
		*p = Between(vs[0], vs[1])
		return nil
	default:
		return fmt.Errorf("line %d: param must be a number or [min, max]", node.Line)
	}
}

// MarshalYAML encodes p the way UnmarshalYAML reads it.
func (p Param) MarshalYAML() (any, error) {
	if p.ranged {
		return []float64{p.min, p.max}, nil
	}
	return p.min, nil
}

// UnmarshalYAML decodes a hex string or a component list.
func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		parsed, err := ParseHexColor(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*c = parsed
		return nil
	case yaml.SequenceNode:
		var vs []float64
		if err := node.Decode(&vs); err != nil {
			return err
		}
		switch len(vs) {
		case 3:
			*c = Color{vs[0], vs[1], vs[2], 1}.Clamped()
		case 4:
			*c = Color{vs[0], vs[1], vs[2], vs[3]}.Clamped()
		default:
			return fmt.Errorf("line %d: color needs 3 or 4 components, got %d", node.Line, len(vs))
		}
		return nil
	default:
		return fmt.Errorf("line %d: color must be a hex string or a list", node.Line)
	}
}

// MarshalYAML encodes c as a component list.
func (c Color) MarshalYAML() (any, error) {
	return []float64{c.R, c.G, c.B, c.A}, nil
}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa". Without an alpha byte the
// color is opaque.
func ParseHexColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	alpha := 1.0
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("color %q: %w", s, ErrInvalidArgument)
		}
		alpha = float64(a) / 255
		s = s[:7]
	}
	cc, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, ErrInvalidArgument)
	}
	return Color{cc.R, cc.G, cc.B, alpha}, nil
}

// Hex formats c as "#rrggbbaa".
func (c Color) Hex() string {
	cl := c.Clamped()
	rgb := colorful.Color{R: cl.R, G: cl.G, B: cl.B}.Hex()
	return fmt.Sprintf("%s%02x", rgb, uint8(cl.A*255+0.5))
}

// UnmarshalYAML reads "oldest-first" or "newest-first".
func (o *Order) UnmarshalYAML(node *yaml.Node) error {
	switch node.Value {
	case "oldest-first", "oldest":
		*o = OldestFirst
	case "newest-first", "newest":
		*o = NewestFirst
	default:
		return fmt.Errorf("line %d: unknown order %q", node.Line, node.Value)
	}
	return nil
}

// MarshalYAML writes the order's name.
func (o Order) MarshalYAML() (any, error) {
	return o.String(), nil
}

// MarshalEmitterConfig encodes cfg as YAML that ParseEmitterConfig reads back.
func MarshalEmitterConfig(cfg EmitterConfig) ([]byte, error) {
	f := emitterFile{
		Capacity: &cfg.Capacity, Rate: &cfg.Rate, Interval: &cfg.Interval,
		Radius: &cfg.Radius, Direction: &cfg.Direction, Speed: &cfg.Speed,
		Force: &cfg.Force, Gravity: &cfg.Gravity, Wind: &cfg.Wind,
		Friction: &cfg.Friction, Rotation: &cfg.Rotation, Growth: &cfg.Growth,
		Fade: &cfg.Fade, Size: &cfg.Size, Lifespan: &cfg.Lifespan,
		Spectrum: &cfg.Spectrum, Order: &cfg.Order,
		WorldSpace: &cfg.WorldSpace, Round: &cfg.Round, Seed: &cfg.Seed,
	}
	return yaml.Marshal(&f)
}
