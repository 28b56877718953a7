package canopy

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 values on a drawable simultaneously. Create
// one with the convenience constructors (TweenPosition, TweenScale,
// TweenOpacity, TweenColor, TweenAngle) and call Update(dt) each tick. If the
// target is disposed, the group stops immediately.
//
// There is no global animation manager; callers run Update themselves.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	values [4]float64
	apply  func(v *[4]float64)
	target Drawable
	Done   bool
}

// Update advances all tweens by dt seconds and writes the values to the
// target. If the target has been disposed, Done is set and nothing is
// written.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target == nil || g.target.Disposed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		g.values[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.apply(&g.values)
	g.Done = allDone
}

func newTweenGroup(d Drawable, from, to []float64, duration float32, fn ease.TweenFunc, apply func(v *[4]float64)) *TweenGroup {
	g := &TweenGroup{count: len(from), target: d, apply: apply}
	for i := range from {
		g.tweens[i] = gween.New(float32(from[i]), float32(to[i]), duration, fn)
		g.values[i] = from[i]
	}
	return g
}

// TweenPosition animates the position to (x, y).
func TweenPosition(d Drawable, x, y float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	r := d.base()
	p := r.Position()
	return newTweenGroup(d, []float64{p.X, p.Y}, []float64{x, y}, duration, fn, func(v *[4]float64) {
		r.SetPosition(v[0], v[1])
	})
}

// TweenScale animates the scale factors to (sx, sy).
func TweenScale(d Drawable, sx, sy float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	r := d.base()
	s := r.Scale()
	return newTweenGroup(d, []float64{s.X, s.Y}, []float64{sx, sy}, duration, fn, func(v *[4]float64) {
		r.SetScale(v[0], v[1])
	})
}

// TweenAngle animates the rotation to deg degrees, taking the direct path
// without wrapping through 0.
func TweenAngle(d Drawable, deg float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	r := d.base()
	return newTweenGroup(d, []float64{r.Angle()}, []float64{deg}, duration, fn, func(v *[4]float64) {
		r.SetAngle(v[0])
	})
}

// TweenOpacity animates the opacity to o.
func TweenOpacity(d Drawable, o float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	r := d.base()
	return newTweenGroup(d, []float64{r.Opacity()}, []float64{o}, duration, fn, func(v *[4]float64) {
		r.SetOpacity(v[0])
	})
}

// TweenColor animates all four components of the tint to c.
func TweenColor(d Drawable, c Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	r := d.base()
	from := r.Color
	if from == ColorNone {
		from = ColorWhite
	}
	return newTweenGroup(d,
		[]float64{from.R, from.G, from.B, from.A},
		[]float64{c.R, c.G, c.B, c.A},
		duration, fn, func(v *[4]float64) {
			r.Color = Color{v[0], v[1], v[2], v[3]}
		})
}
