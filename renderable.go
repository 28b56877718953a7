package canopy

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Drawable is anything a Batch can hold. The set of implementations is
// closed: Sprite, AtlasSprite, Plane, Viewport, and Emitter.
type Drawable interface {
	// Z is the draw depth. Lower values draw first.
	Z() int
	// Update advances the drawable by delta seconds.
	Update(delta float64) error
	// Render draws the drawable into the current target. alpha is the
	// fraction of a tick elapsed since the last Update.
	Render(alpha float64) error
	// Dispose releases the drawable's backend resources and removes it from
	// its Batch. Calling it again has no effect.
	Dispose()
	// Disposed reports whether Dispose has been called.
	Disposed() bool

	base() *Renderable
}

// Renderable is the state every drawable shares: placement, appearance,
// depth, batch membership, and the backend buffers holding its geometry.
type Renderable struct {
	Transform
	Visual

	id    uint32
	z     int
	gfx   *Graphics
	batch *Batch
	owner Drawable

	vertices   Buffer
	indices    Buffer
	indexCount int
	texture    Texture
	wrap       Wrap
	program    ProgramKind

	disposed bool
}

// init allocates a quad for owner and registers it in batch. batch may be
// nil, leaving the drawable unattached.
func (r *Renderable) init(g *Graphics, owner Drawable, batch *Batch, vertices []float32, usage BufferUsage) error {
	if g == nil {
		return fmt.Errorf("canopy: new drawable: %w", ErrNoGraphics)
	}
	r.Transform = newTransform()
	r.Visual = newVisual()
	r.Transform.live = r.mustLive
	r.Visual.live = r.mustLive
	r.gfx = g
	r.owner = owner

	vb, err := g.backend.NewVertexBuffer(vertices, usage)
	if err != nil {
		return fmt.Errorf("canopy: vertex buffer: %w", err)
	}
	ib, err := g.backend.NewIndexBuffer(QuadIndices)
	if err != nil {
		g.backend.DeleteBuffer(vb)
		return fmt.Errorf("canopy: index buffer: %w", err)
	}
	r.vertices = vb
	r.indices = ib
	r.indexCount = len(QuadIndices)
	r.id = g.nextID()

	if batch != nil {
		if _, err := batch.Add(owner); err != nil {
			r.release()
			return err
		}
	}
	return nil
}

// base returns the shared state. Every variant overrides it so that a nil
// pointer of that variant yields nil instead of faulting.
func (r *Renderable) base() *Renderable { return r }

// ID returns the identifier assigned at construction, or 0 once disposed.
func (r *Renderable) ID() uint32 { return r.id }

// Z returns the draw depth.
func (r *Renderable) Z() int { return r.z }

// SetZ changes the draw depth and invalidates the owning Batch.
func (r *Renderable) SetZ(z int) {
	r.mustLive("SetZ")
	if r.z == z {
		return
	}
	r.z = z
	if r.batch != nil {
		r.batch.Invalidate()
	}
}

// Parent returns the Batch this drawable is registered in, or nil.
func (r *Renderable) Parent() *Batch { return r.batch }

// Graphics returns the render context the drawable was created with.
func (r *Renderable) Graphics() *Graphics { return r.gfx }

// Flash overlays c for ticks updates. A ticks of 0 shows the flash for one
// update.
func (r *Renderable) Flash(c Color, ticks int) {
	r.mustLive("Flash")
	r.startFlash(c, ticks)
}

// Disposed reports whether Dispose has been called. It never fails.
func (r *Renderable) Disposed() bool { return r.disposed }

// Dispose removes the drawable from its Batch and releases its buffers.
func (r *Renderable) Dispose() {
	if r.disposed {
		return
	}
	if r.batch != nil {
		r.batch.Remove(r.owner)
	}
	r.release()
	r.disposed = true
	r.id = 0
}

func (r *Renderable) release() {
	if r.vertices != 0 {
		r.gfx.backend.DeleteBuffer(r.vertices)
		r.vertices = 0
	}
	if r.indices != 0 {
		r.gfx.backend.DeleteBuffer(r.indices)
		r.indices = 0
	}
}

// update is the shared per-tick step: motion and flash countdown.
func (r *Renderable) update(op string, delta float64) error {
	if r.disposed {
		return fmt.Errorf("canopy: %s: %w", op, ErrDisposed)
	}
	r.Transform.Update(delta)
	r.advanceFlash()
	return nil
}

// checkRender reports whether a render call should draw anything.
func (r *Renderable) checkRender(op string) (bool, error) {
	if r.disposed {
		return false, fmt.Errorf("canopy: %s: %w", op, ErrDisposed)
	}
	return !r.hidden(), nil
}

// drawQuad issues the indexed draw for the drawable's quad through the
// sprite program.
func (r *Renderable) drawQuad(model mgl32.Mat4) error {
	g := r.gfx
	b := g.backend
	prog, err := g.program(r.program)
	if err != nil {
		return err
	}
	b.SetBlend(r.Blend)
	b.UseProgram(prog)
	g.bindVisual(&r.Visual, model)
	b.BindTexture(r.texture, r.wrap)
	if err := b.DrawIndexed(r.vertices, r.indices, r.indexCount); err != nil {
		return fmt.Errorf("canopy: draw %d: %w", r.id, err)
	}
	g.stats.DrawCalls++
	return nil
}

// uploadVertices replaces the quad's vertex data.
func (r *Renderable) uploadVertices(v []float32) error {
	if err := r.gfx.backend.WriteBuffer(r.vertices, 0, v); err != nil {
		return fmt.Errorf("canopy: upload vertices %d: %w", r.id, err)
	}
	return nil
}
