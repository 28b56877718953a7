package canopy

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// Order selects the submission order of particles within the emitter's
// single draw, which decides which overlapping particle ends up on top.
type Order uint8

const (
	// OldestFirst draws newer particles over older ones.
	OldestFirst Order = iota
	// NewestFirst draws older particles over newer ones.
	NewestFirst
)

func (o Order) String() string {
	if o == NewestFirst {
		return "newest-first"
	}
	return "oldest-first"
}

// Spectrum is the color range a particle travels through over its life.
type Spectrum struct {
	From Color `yaml:"from"`
	To   Color `yaml:"to"`
}

// EmitterConfig controls how particles are spawned and behave. Every Param
// is sampled once per particle at spawn.
type EmitterConfig struct {
	// Capacity is the pool size. Spawns beyond it are dropped.
	Capacity int
	// Rate is the number of particles spawned each time the spawn gate opens.
	Rate int
	// Interval is the time in seconds between gate openings. Zero or less
	// opens the gate once per update.
	Interval Param

	// Radius is the distance from the emitter a particle spawns at, in a
	// uniformly random direction.
	Radius Param
	// Direction is the launch direction in degrees, clockwise from +X.
	Direction Param
	// Speed is the launch speed in pixels per second.
	Speed Param
	// Force accelerates particles away from the point they spawned around,
	// in pixels per second squared. Negative values pull inward.
	Force Param
	// Gravity is the vertical acceleration in pixels per second squared.
	// Positive pulls down.
	Gravity Param
	// Wind is the horizontal acceleration in pixels per second squared.
	// Positive pushes right.
	Wind Param
	// Friction is the exponential velocity decay rate per second.
	Friction Param
	// Rotation is the spin in degrees per second. Positive is clockwise.
	Rotation Param
	// Growth is the size change in pixels per second.
	Growth Param
	// Fade is the opacity lost per second, in percent.
	Fade Param
	// Size is the initial particle size in pixels.
	Size Param
	// Lifespan is how long a particle lives, in seconds. Use
	// Fixed(math.Inf(1)) for particles that never expire.
	Lifespan Param

	// Spectrum is interpolated in L*u*v* by age over lifespan.
	Spectrum Spectrum
	// Order is the draw submission order.
	Order Order
	// WorldSpace leaves particles where they spawned when the emitter
	// moves. Otherwise they move with it.
	WorldSpace bool
	// Round clips each particle to a circle.
	Round bool
	// Seed seeds the emitter's random source. Zero picks a random seed.
	Seed uint64
}

// DefaultEmitterConfig returns a small white fountain.
func DefaultEmitterConfig() EmitterConfig {
	return EmitterConfig{
		Capacity:  256,
		Rate:      1,
		Interval:  Fixed(1.0 / 60),
		Direction: Between(250, 290),
		Speed:     Between(60, 120),
		Gravity:   Fixed(EarthGravity * 16),
		Size:      Between(2, 4),
		Lifespan:  Between(1, 2),
		Fade:      Fixed(50),
		Spectrum:  Spectrum{ColorWhite, ColorWhite},
		Round:     true,
	}
}

// particle holds per-particle simulation state. Managed by Emitter.
type particle struct {
	x, y     float64
	vx, vy   float64
	ox, oy   float64 // point the particle spawned around
	rotation float64 // degrees
	spin     float64 // degrees per second

	age, lifespan float64
	size, growth  float64
	opacity, fade float64

	gravity, wind, friction, force float64

	color Color
}

// Emitter simulates a bounded pool of particles on the CPU and draws all of
// them with one instanced draw.
type Emitter struct {
	Renderable

	cfg       EmitterConfig
	image     *Image
	pool      []particle
	instances Buffer
	instData  []float32
	rng       *rand.Rand
	untilEmit float64
	paused    bool
}

// NewEmitter creates an emitter and adds it to batch.
func NewEmitter(g *Graphics, batch *Batch, cfg EmitterConfig) (*Emitter, error) {
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("canopy: new emitter: capacity %d: %w", cfg.Capacity, ErrInvalidArgument)
	}
	if g == nil {
		return nil, fmt.Errorf("canopy: new emitter: %w", ErrNoGraphics)
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Spectrum == (Spectrum{}) {
		cfg.Spectrum = Spectrum{ColorWhite, ColorWhite}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	instData := make([]float32, cfg.Capacity*InstanceStride)
	instances, err := g.backend.NewVertexBuffer(instData, UsageDynamic)
	if err != nil {
		return nil, fmt.Errorf("canopy: new emitter: instance buffer: %w", err)
	}
	e := &Emitter{
		cfg:       cfg,
		pool:      make([]particle, 0, cfg.Capacity),
		instances: instances,
		instData:  instData,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	if err := e.init(g, e, batch, centeredQuadVertices(), UsageStatic); err != nil {
		g.backend.DeleteBuffer(instances)
		return nil, err
	}
	e.program = ProgramParticle
	return e, nil
}

// Config returns a pointer to the emitter's config for live tuning.
// Capacity is fixed at construction; changing it has no effect.
func (e *Emitter) Config() *EmitterConfig { return &e.cfg }

// Image returns the particle texture, or nil for untextured particles.
func (e *Emitter) Image() *Image { return e.image }

// SetImage textures every particle with img. nil draws solid particles.
func (e *Emitter) SetImage(img *Image) {
	e.mustLive("SetImage")
	e.image = img
}

// Count returns the number of live particles.
func (e *Emitter) Count() int { return len(e.pool) }

func (e *Emitter) base() *Renderable {
	if e == nil {
		return nil
	}
	return &e.Renderable
}

// Capacity returns the pool size.
func (e *Emitter) Capacity() int { return cap(e.pool) }

// Pause freezes spawning and simulation. Live particles keep rendering.
func (e *Emitter) Pause() {
	e.mustLive("Pause")
	e.paused = true
}

// Resume undoes Pause.
func (e *Emitter) Resume() {
	e.mustLive("Resume")
	e.paused = false
}

// Paused reports whether the emitter is paused.
func (e *Emitter) Paused() bool { return e.paused }

// Interval returns the time between spawn gate openings.
func (e *Emitter) Interval() Param { return e.cfg.Interval }

// SetInterval sets the time between spawn gate openings.
func (e *Emitter) SetInterval(p Param) {
	e.mustLive("SetInterval")
	e.cfg.Interval = p
}

// Frequency returns how many times per second the spawn gate opens on
// average, or +Inf when it opens every update.
func (e *Emitter) Frequency() float64 {
	mean := (e.cfg.Interval.Min() + e.cfg.Interval.Max()) / 2
	if mean <= 0 {
		return math.Inf(1)
	}
	return 1 / mean
}

// SetFrequency opens the spawn gate hz times per second.
func (e *Emitter) SetFrequency(hz float64) error {
	e.mustLive("SetFrequency")
	if !(hz > 0) || math.IsInf(hz, 1) {
		return fmt.Errorf("canopy: emitter frequency %g: %w", hz, ErrInvalidArgument)
	}
	e.cfg.Interval = Fixed(1 / hz)
	return nil
}

// Emit spawns up to n particles immediately, regardless of the spawn gate
// and of Pause. Particles that do not fit are dropped. It returns the number
// spawned.
func (e *Emitter) Emit(n int) int {
	e.mustLive("Emit")
	return e.spawn(n)
}

// Reset kills every live particle and restarts the spawn gate.
func (e *Emitter) Reset() {
	e.mustLive("Reset")
	clear(e.pool)
	e.pool = e.pool[:0]
	e.untilEmit = 0
}

// Update advances the emitter's own motion and flash and, unless paused,
// the particle simulation.
func (e *Emitter) Update(delta float64) error {
	if err := e.update("emitter update", delta); err != nil {
		return err
	}
	if e.paused {
		return nil
	}
	e.simulate(delta)
	e.gate(delta)
	return nil
}

// simulate ages, culls, and integrates every particle. Survivors keep their
// spawn order.
func (e *Emitter) simulate(dt float64) {
	from, to := e.cfg.Spectrum.From, e.cfg.Spectrum.To
	n := 0
	for i := range e.pool {
		if e.pool[i].age+dt >= e.pool[i].lifespan {
			continue
		}
		if n != i {
			e.pool[n] = e.pool[i]
		}
		p := &e.pool[n]
		n++

		p.age += dt

		p.vx += p.wind * dt
		p.vy += p.gravity * dt
		if p.friction != 0 {
			k := math.Exp(-p.friction * dt)
			p.vx *= k
			p.vy *= k
		}
		if p.force != 0 {
			dx, dy := p.x-p.ox, p.y-p.oy
			if d := math.Hypot(dx, dy); d > 0 {
				p.vx += dx / d * p.force * dt
				p.vy += dy / d * p.force * dt
			}
		}
		p.x += p.vx * dt
		p.y += p.vy * dt
		p.rotation += p.spin * dt

		p.opacity = max(p.opacity-p.fade/100*dt, 0)
		p.size = max(p.size+p.growth*dt, 0)

		t := 0.0
		if !math.IsInf(p.lifespan, 1) {
			t = p.age / p.lifespan
		}
		p.color = blendLuv(from, to, t)
	}
	clear(e.pool[n:])
	e.pool = e.pool[:n]
}

// gate opens the spawn gate as many times as the elapsed time allows. The
// number of openings per update is bounded by the capacity.
func (e *Emitter) gate(dt float64) {
	for opened := 0; e.untilEmit <= 0 && opened <= cap(e.pool); opened++ {
		e.spawn(e.cfg.Rate)
		step := e.cfg.Interval.Sample(e.rng)
		if !(step > 0) {
			e.untilEmit = 0
			break
		}
		e.untilEmit += step
	}
	if e.untilEmit < 0 {
		e.untilEmit = 0
	}
	e.untilEmit -= dt
}

// spawn appends up to n fresh particles and returns how many fit.
func (e *Emitter) spawn(n int) int {
	var ox, oy float64
	if e.cfg.WorldSpace {
		ox, oy = e.position.X, e.position.Y
	}
	c := &e.cfg
	spawned := 0
	for ; spawned < n && len(e.pool) < cap(e.pool); spawned++ {
		theta := e.rng.Float64() * 2 * math.Pi
		radius := c.Radius.Sample(e.rng)
		dir := c.Direction.Sample(e.rng) * math.Pi / 180
		speed := c.Speed.Sample(e.rng)

		lifespan := c.Lifespan.Sample(e.rng)
		if !(lifespan > 0) {
			lifespan = 1
		}
		e.pool = append(e.pool, particle{
			x:        ox + math.Cos(theta)*radius,
			y:        oy + math.Sin(theta)*radius,
			vx:       math.Cos(dir) * speed,
			vy:       math.Sin(dir) * speed,
			ox:       ox,
			oy:       oy,
			spin:     c.Rotation.Sample(e.rng),
			lifespan: lifespan,
			size:     max(c.Size.Sample(e.rng), 0),
			growth:   c.Growth.Sample(e.rng),
			opacity:  1,
			fade:     c.Fade.Sample(e.rng),
			gravity:  c.Gravity.Sample(e.rng),
			wind:     c.Wind.Sample(e.rng),
			friction: c.Friction.Sample(e.rng),
			force:    c.Force.Sample(e.rng),
			color:    c.Spectrum.From,
		})
	}
	return spawned
}

// Render draws every live particle with one instanced draw.
func (e *Emitter) Render(alpha float64) error {
	ok, err := e.checkRender("emitter render")
	if !ok || len(e.pool) == 0 {
		return err
	}
	n := e.fillInstances()

	g := e.gfx
	b := g.backend
	if err := b.WriteBuffer(e.instances, 0, e.instData[:n*InstanceStride]); err != nil {
		return fmt.Errorf("canopy: emitter %d: upload instances: %w", e.id, err)
	}
	prog, err := g.program(ProgramParticle)
	if err != nil {
		return err
	}
	model := mgl32.Ident4()
	if !e.cfg.WorldSpace {
		model = e.Placement(alpha)
	}
	round := float32(0)
	if e.cfg.Round {
		round = 1
	}

	b.SetBlend(e.Blend)
	b.UseProgram(prog)
	b.SetUniformMat4(UniformProjection, g.projection())
	b.SetUniformMat4(UniformModel, model)
	b.SetUniformFloat(UniformRound, round)
	b.BindTexture(textureOf(e.image), WrapClamp)
	if err := b.DrawInstanced(e.vertices, e.indices, e.indexCount, e.instances, n); err != nil {
		return fmt.Errorf("canopy: emitter %d: %w", e.id, err)
	}
	g.stats.DrawCalls++
	g.stats.Instances += n
	return nil
}

// fillInstances writes the instance data for every live particle in
// submission order and returns the particle count.
func (e *Emitter) fillInstances() int {
	n := len(e.pool)
	for i := 0; i < n; i++ {
		src := i
		if e.cfg.Order == NewestFirst {
			src = n - 1 - i
		}
		p := &e.pool[src]
		c := p.color
		c.A *= p.opacity
		c = e.Shade(c)

		d := e.instData[i*InstanceStride : (i+1)*InstanceStride]
		d[0] = float32(p.x)
		d[1] = float32(p.y)
		d[2] = float32(p.size)
		d[3] = float32(p.rotation * math.Pi / 180)
		d[4] = float32(c.R)
		d[5] = float32(c.G)
		d[6] = float32(c.B)
		d[7] = float32(c.A)
	}
	return n
}

// Dispose releases the instance buffer and removes the emitter from its
// Batch.
func (e *Emitter) Dispose() {
	if e.disposed {
		return
	}
	e.gfx.backend.DeleteBuffer(e.instances)
	e.instances = 0
	e.pool = nil
	e.Renderable.Dispose()
}
