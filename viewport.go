package canopy

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Viewport is a drawable that is also a render target. Its own Batch is
// drawn into an offscreen texture, which is then drawn like a sprite into
// whatever Batch the viewport belongs to. Viewports nest.
//
// A viewport must never be reachable from its own Batch. Rendering such a
// cycle stops at MaxViewportDepth with ErrViewportDepth.
type Viewport struct {
	Renderable

	// BackColor is what the offscreen texture is cleared to every frame.
	BackColor Color

	children *Batch
	target   Target
	ortho    mgl32.Mat4
}

// NewViewport creates a w x h viewport and adds it to batch.
func NewViewport(g *Graphics, batch *Batch, w, h int) (*Viewport, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("canopy: new viewport %dx%d: %w", w, h, ErrInvalidArgument)
	}
	if g == nil {
		return nil, fmt.Errorf("canopy: new viewport: %w", ErrNoGraphics)
	}
	target, tex, err := g.backend.NewTarget(w, h)
	if err != nil {
		return nil, fmt.Errorf("canopy: new viewport: %w", err)
	}
	v := &Viewport{
		BackColor: ColorTransparent,
		children:  NewBatch(),
		target:    target,
		ortho:     viewportOrtho(w, h),
	}
	if err := v.init(g, v, batch, quadVertices(0, 0, 1, 1), UsageStatic); err != nil {
		g.backend.DeleteTarget(target)
		return nil, err
	}
	v.program = ProgramSprite
	v.texture = tex
	v.size = Size{w, h}
	v.Transform.resize = v.resize
	return v, nil
}

func viewportOrtho(w, h int) mgl32.Mat4 {
	return mgl32.Ortho(0, float32(w), float32(h), 0, -1, 1)
}

func (v *Viewport) base() *Renderable {
	if v == nil {
		return nil
	}
	return &v.Renderable
}

// Batch returns the viewport's own Batch. Drawables added to it render into
// the viewport instead of the target the viewport itself is drawn to.
func (v *Viewport) Batch() *Batch { return v.children }

// Target returns the backend handle of the offscreen target.
func (v *Viewport) Target() Target { return v.target }

// Texture returns the texture the viewport's contents are sampled from.
func (v *Viewport) Texture() Texture { return v.texture }

// resize reallocates the target before the size changes. It backs
// SetSize, so the target always matches the viewport's size.
func (v *Viewport) resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("canopy: viewport size %dx%d: %w", w, h, ErrInvalidArgument)
	}
	if (Size{w, h}) == v.size {
		return nil
	}
	if err := v.gfx.backend.ResizeTarget(v.target, w, h); err != nil {
		return fmt.Errorf("canopy: viewport resize: %w", err)
	}
	v.ortho = viewportOrtho(w, h)
	return nil
}

// Update advances motion and the flash countdown. Members of the viewport's
// Batch are updated by UpdateAll, not here.
func (v *Viewport) Update(delta float64) error {
	return v.update("viewport update", delta)
}

// Render draws the viewport's Batch into its target, then draws the target
// as a quad into the current target.
func (v *Viewport) Render(alpha float64) error {
	ok, err := v.checkRender("viewport render")
	if !ok {
		return err
	}
	if err := v.renderChildren(alpha); err != nil {
		return err
	}
	return v.drawQuad(v.ModelAt(alpha))
}

func (v *Viewport) renderChildren(alpha float64) error {
	g := v.gfx
	if err := g.enterViewport(); err != nil {
		return err
	}
	defer g.leaveViewport()

	area := Rect{0, 0, float64(v.size.W), float64(v.size.H)}
	if err := g.backend.PushTarget(v.target, v.BackColor, area); err != nil {
		return fmt.Errorf("canopy: viewport %d: %w", v.id, err)
	}
	g.pushProjection(v.ortho)
	err := v.children.Render(alpha)
	g.popProjection()
	if perr := g.backend.PopTarget(); perr != nil && err == nil {
		err = fmt.Errorf("canopy: viewport %d: %w", v.id, perr)
	}
	return err
}

// Dispose releases the offscreen target and removes the viewport from its
// Batch. Members of the viewport's own Batch are left alone.
func (v *Viewport) Dispose() {
	if v.disposed {
		return
	}
	v.gfx.backend.DeleteTarget(v.target)
	v.target = 0
	v.texture = 0
	v.Renderable.Dispose()
}
