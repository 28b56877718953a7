package canopy

import "testing"

func TestSettersPanicAfterDispose(t *testing.T) {
	g, _ := newTestGraphics(t)
	emitter := func(t *testing.T) Drawable {
		e, err := NewEmitter(g, nil, DefaultEmitterConfig())
		if err != nil {
			t.Fatal(err)
		}
		return e
	}
	drawables := []struct {
		name string
		make func(t *testing.T) Drawable
	}{
		{"sprite", func(t *testing.T) Drawable { return newTestSprite(t, g, nil, 0) }},
		{"viewport", func(t *testing.T) Drawable { return newTestViewport(t, g, nil, 8, 8) }},
		{"emitter", emitter},
	}
	setters := []struct {
		name string
		call func(r *Renderable)
	}{
		{"SetPosition", func(r *Renderable) { r.SetPosition(1, 2) }},
		{"Move", func(r *Renderable) { r.Move(1, 2) }},
		{"SetPivot", func(r *Renderable) { r.SetPivot(0.5, 0.5) }},
		{"SetScale", func(r *Renderable) { r.SetScale(2, 2) }},
		{"SetVelocity", func(r *Renderable) { r.SetVelocity(1, 0) }},
		{"SetAngle", func(r *Renderable) { r.SetAngle(45) }},
		{"Rotate", func(r *Renderable) { r.Rotate(10, nil) }},
		{"SetSize", func(r *Renderable) { _ = r.SetSize(4, 4) }},
		{"Transform.SetSize", func(r *Renderable) { _ = r.Transform.SetSize(4, 4) }},
		{"SetOpacity", func(r *Renderable) { r.SetOpacity(0.5) }},
	}
	for _, dt := range drawables {
		t.Run(dt.name, func(t *testing.T) {
			d := dt.make(t)
			r := d.base()
			r.SetPosition(3, 4)
			d.Dispose()

			for _, st := range setters {
				mustPanicDisposed(t, st.name, func() { st.call(r) })
			}
			if r.Position() != (Vec2{3, 4}) {
				t.Errorf("position changed after dispose: %v", r.Position())
			}
		})
	}
}
