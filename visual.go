package canopy

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Tone is an additive color shift plus a grayscale mix. R, G, and B are in
// [-1, 1]; Gray is in [0, 1] where 1 is fully desaturated.
type Tone struct {
	R, G, B, Gray float64
}

// ToneGray fully desaturates without shifting.
var ToneGray = Tone{0, 0, 0, 1}

// NewTone returns a Tone with every component clamped to its range.
func NewTone(r, g, b, gray float64) Tone {
	return Tone{clamp(r, -1, 1), clamp(g, -1, 1), clamp(b, -1, 1), clamp01(gray)}
}

// Vec4 returns the tone in uniform layout.
func (t Tone) Vec4() [4]float32 {
	return [4]float32{float32(t.R), float32(t.G), float32(t.B), float32(t.Gray)}
}

// Apply returns c shifted by the tone and then mixed toward its luminance.
// Alpha is never touched.
func (t Tone) Apply(c Color) Color {
	r := clamp01(c.R + t.R)
	g := clamp01(c.G + t.G)
	b := clamp01(c.B + t.B)
	if t.Gray > 0 {
		l := 0.299*r + 0.587*g + 0.114*b
		r = lerp(r, l, t.Gray)
		g = lerp(g, l, t.Gray)
		b = lerp(b, l, t.Gray)
	}
	return Color{r, g, b, c.A}
}

// Visual is the appearance state shared by every drawable.
type Visual struct {
	// Color tints the texture. The zero value leaves it untouched; any other
	// value multiplies it.
	Color Color
	// Tone shifts and desaturates after tinting.
	Tone Tone
	// Hue rotates the hue by this many degrees.
	Hue float64
	// Visible hides the drawable when false. Update still runs.
	Visible bool
	// Blend is the blend equation and factors used when drawing.
	Blend Blend

	opacity       float64
	flashColor    Color
	flashDuration int

	live func(op string)
}

func newVisual() Visual {
	return Visual{
		Visible:       true,
		Blend:         DefaultBlend(),
		opacity:       1,
		flashDuration: -1,
	}
}

// Opacity returns the opacity in [0, 1].
func (v *Visual) Opacity() float64 { return v.opacity }

// SetOpacity sets the opacity, clamped to [0, 1]. NaN becomes 0.
func (v *Visual) SetOpacity(o float64) {
	if v.live != nil {
		v.live("SetOpacity")
	}
	if math.IsNaN(o) {
		o = 0
	}
	v.opacity = clamp01(o)
}

// Flashing reports whether a flash is in progress.
func (v *Visual) Flashing() bool {
	return v.flashDuration > -1
}

// FlashColor returns the active flash color, or ColorNone.
func (v *Visual) FlashColor() Color {
	return v.flashColor
}

func (v *Visual) startFlash(c Color, ticks int) {
	if ticks < 0 {
		ticks = 0
	}
	v.flashColor = c
	v.flashDuration = ticks
}

// advanceFlash counts the flash down by one update. A flash started with n
// ticks is still active after n updates and ends on update n+1.
func (v *Visual) advanceFlash() {
	if v.flashDuration <= -1 {
		return
	}
	v.flashDuration--
	if v.flashDuration < 0 {
		v.flashColor = ColorNone
		v.flashDuration = -1
	}
}

// hidden reports whether drawing would have no visible effect.
func (v *Visual) hidden() bool {
	return !v.Visible || v.opacity <= 0
}

// Shade runs c through the same color pipeline the shaders apply to texels:
// tint, tone, hue, flash, opacity. Used for geometry whose color is baked
// into vertices rather than sampled.
func (v *Visual) Shade(c Color) Color {
	if v.Color != ColorNone {
		c = Color{c.R * v.Color.R, c.G * v.Color.G, c.B * v.Color.B, c.A * v.Color.A}
	}
	c = v.Tone.Apply(c)
	if v.Hue != 0 {
		c = rotateHue(c, v.Hue)
	}
	if v.flashColor != ColorNone {
		c.R = lerp(c.R, v.flashColor.R, v.flashColor.A)
		c.G = lerp(c.G, v.flashColor.G, v.flashColor.A)
		c.B = lerp(c.B, v.flashColor.B, v.flashColor.A)
	}
	c.A *= v.opacity
	return c
}

// rotateHue rotates the hue of c by deg degrees in HSV space.
func rotateHue(c Color, deg float64) Color {
	h, s, val := colorful.Color{R: c.R, G: c.G, B: c.B}.Hsv()
	out := colorful.Hsv(wrapDegrees(h+deg), s, val).Clamped()
	return Color{out.R, out.G, out.B, c.A}
}

// toColorful drops alpha.
func (c Color) toColorful() colorful.Color {
	return colorful.Color{R: c.R, G: c.G, B: c.B}
}

// blendLuv interpolates from a to b in CIE L*u*v*, and linearly in alpha.
func blendLuv(a, b Color, t float64) Color {
	if a == b {
		return a
	}
	m := a.toColorful().BlendLuv(b.toColorful(), t).Clamped()
	return Color{m.R, m.G, m.B, lerp(a.A, b.A, t)}
}
