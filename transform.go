package canopy

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform is the 2D placement of a drawable: position, pivot, scale,
// rotation, velocity, and pixel size. The model matrix derived from it is
// cached and only recomputed on the first read after a mutation.
//
// Geometry is authored on the unit quad [0,1]x[0,1]; the model matrix maps it
// to world space as
//
//	Translate(Position) -> Translate(Pivot) -> RotateZ(Angle) -> Translate(-Pivot) -> Scale(Scale * Size)
//
// read right to left.
type Transform struct {
	position Vec2
	previous Vec2
	pivot    Vec2
	scale    Vec2
	velocity Vec2
	angle    float64 // degrees in [0, 360)
	size     Size

	model mgl32.Mat4
	dirty bool

	// live, when set, panics if the owning drawable has been disposed.
	live func(op string)
	// resize, when set, is consulted before the size changes.
	resize func(w, h int) error
}

func (t *Transform) check(op string) {
	if t.live != nil {
		t.live(op)
	}
}

// newTransform returns a transform at the origin with unit scale.
func newTransform() Transform {
	return Transform{
		scale: Vec2{1, 1},
		model: mgl32.Ident4(),
		dirty: true,
	}
}

// Update integrates velocity over delta seconds and marks the model dirty.
func (t *Transform) Update(delta float64) {
	t.previous = t.position
	t.position = t.position.Add(t.velocity.Scale(delta))
	t.dirty = true
}

// Position returns the current position with sub-pixel precision.
func (t *Transform) Position() Vec2 { return t.position }

// SetPosition moves the transform without interpolating from the previous
// position.
func (t *Transform) SetPosition(x, y float64) {
	t.check("SetPosition")
	t.position = Vec2{x, y}
	t.previous = t.position
	t.dirty = true
}

// Move offsets the position by (dx, dy).
func (t *Transform) Move(dx, dy float64) {
	t.check("Move")
	t.position = t.position.Add(Vec2{dx, dy})
	t.dirty = true
}

// X returns the horizontal position.
func (t *Transform) X() float64 { return t.position.X }

// Y returns the vertical position.
func (t *Transform) Y() float64 { return t.position.Y }

// Pivot returns the rotation pivot, relative to the drawable's top-left.
func (t *Transform) Pivot() Vec2 { return t.pivot }

// SetPivot sets the rotation pivot relative to the drawable's top-left.
func (t *Transform) SetPivot(x, y float64) {
	t.check("SetPivot")
	t.pivot = Vec2{x, y}
	t.dirty = true
}

// Scale returns the scale factors.
func (t *Transform) Scale() Vec2 { return t.scale }

// SetScale sets the scale factors.
func (t *Transform) SetScale(sx, sy float64) {
	t.check("SetScale")
	t.scale = Vec2{sx, sy}
	t.dirty = true
}

// Velocity returns the velocity in pixels per second.
func (t *Transform) Velocity() Vec2 { return t.velocity }

// SetVelocity sets the velocity in pixels per second.
func (t *Transform) SetVelocity(vx, vy float64) {
	t.check("SetVelocity")
	t.velocity = Vec2{vx, vy}
}

// Angle returns the rotation in degrees, in [0, 360).
func (t *Transform) Angle() float64 { return t.angle }

// SetAngle sets the rotation in degrees. Values outside [0, 360) wrap.
func (t *Transform) SetAngle(deg float64) {
	t.check("SetAngle")
	t.angle = wrapDegrees(deg)
	t.dirty = true
}

// Rotate adds deg degrees of rotation around pivot, given relative to the
// drawable. A nil pivot rotates around the center of the scaled bounds.
func (t *Transform) Rotate(deg float64, pivot *Vec2) {
	t.check("Rotate")
	if pivot != nil {
		t.pivot = *pivot
	} else {
		t.pivot = Vec2{
			float64(t.size.W) * t.scale.X / 2,
			float64(t.size.H) * t.scale.Y / 2,
		}
	}
	t.angle = wrapDegrees(t.angle + deg)
	t.dirty = true
}

// Size returns the pixel size.
func (t *Transform) Size() Size { return t.size }

// Width returns the pixel width.
func (t *Transform) Width() int { return t.size.W }

// Height returns the pixel height.
func (t *Transform) Height() int { return t.size.H }

// SetSize sets the pixel size. Negative dimensions are rejected with
// ErrInvalidArgument and leave the size unchanged. A viewport also
// reallocates its target.
func (t *Transform) SetSize(w, h int) error {
	t.check("SetSize")
	if w < 0 || h < 0 {
		return fmt.Errorf("canopy: size %dx%d: %w", w, h, ErrInvalidArgument)
	}
	if t.resize != nil {
		if err := t.resize(w, h); err != nil {
			return err
		}
	}
	t.size = Size{w, h}
	t.dirty = true
	return nil
}

// Bounds returns the unrotated, unscaled rectangle at the current position.
func (t *Transform) Bounds() Rect {
	return Rect{t.position.X, t.position.Y, float64(t.size.W), float64(t.size.H)}
}

// MarkDirty forces the model matrix to be recomputed on the next read.
func (t *Transform) MarkDirty() {
	t.dirty = true
}

// Model returns the cached model matrix, recomputing it first if any field
// changed since the last read. Two reads with no mutation in between return
// identical matrices.
func (t *Transform) Model() mgl32.Mat4 {
	if t.dirty {
		t.model = t.compose(t.position, true)
		t.dirty = false
	}
	return t.model
}

// ModelAt returns the model matrix with the position interpolated between
// the previous update and the current one. alpha is the fraction of a tick
// elapsed since the last update; alpha >= 1 is the cached Model.
func (t *Transform) ModelAt(alpha float64) mgl32.Mat4 {
	if alpha >= 1 || t.previous == t.position {
		return t.Model()
	}
	if alpha < 0 {
		alpha = 0
	}
	return t.compose(t.previous.Lerp(t.position, alpha), true)
}

// Placement is ModelAt without the size factor, for geometry that is already
// measured in pixels.
func (t *Transform) Placement(alpha float64) mgl32.Mat4 {
	pos := t.position
	if alpha < 1 {
		pos = t.previous.Lerp(t.position, max(alpha, 0))
	}
	return t.compose(pos, false)
}

func (t *Transform) compose(pos Vec2, sized bool) mgl32.Mat4 {
	m := mgl32.Translate3D(float32(pos.X), float32(pos.Y), 0)
	if t.angle != 0 {
		px, py := float32(t.pivot.X), float32(t.pivot.Y)
		m = m.Mul4(mgl32.Translate3D(px, py, 0)).
			Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(float32(t.angle)))).
			Mul4(mgl32.Translate3D(-px, -py, 0))
	}
	sx, sy := float32(t.scale.X), float32(t.scale.Y)
	if sized {
		sx *= float32(t.size.W)
		sy *= float32(t.size.H)
	}
	return m.Mul4(mgl32.Scale3D(sx, sy, 1))
}
