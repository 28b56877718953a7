package canopy

import (
	"errors"
	"testing"
)

// uvs returns the texture coordinates of the top-left and bottom-right
// vertices stored in the drawable's vertex buffer.
func uvs(t *testing.T, rec *recorder, r *Renderable) [4]float32 {
	t.Helper()
	buf, ok := rec.buffers[r.vertices]
	if !ok || len(buf) < 8 {
		t.Fatalf("no vertex data for drawable %d", r.id)
	}
	return [4]float32{buf[2], buf[3], buf[6], buf[7]}
}

func TestNewSprite(t *testing.T) {
	g, rec := newTestGraphics(t)
	root := NewBatch()
	img := newTestImage(t, g, 64, 32)

	s, err := NewSprite(g, root, img)
	if err != nil {
		t.Fatal(err)
	}
	if s.Size() != (Size{64, 32}) {
		t.Errorf("Size = %v, want the image size", s.Size())
	}
	if s.SrcRect() != (Rect{0, 0, 64, 32}) {
		t.Errorf("SrcRect = %v", s.SrcRect())
	}
	if !root.Contains(s) || s.Parent() != root {
		t.Error("sprite should be registered in its batch")
	}
	if s.ID() == 0 {
		t.Error("sprite should have an id")
	}
	if len(rec.indices[s.indices]) != len(QuadIndices) {
		t.Error("index buffer not created")
	}

	if _, err := NewSprite(nil, root, img); !errors.Is(err, ErrNoGraphics) {
		t.Errorf("nil graphics = %v, want ErrNoGraphics", err)
	}
}

func TestSpriteWithoutImage(t *testing.T) {
	g, rec := newTestGraphics(t)
	s, err := NewSprite(g, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Size() != (Size{}) {
		t.Errorf("Size = %v, want zero", s.Size())
	}
	if err := s.SetSize(10, 6); err != nil {
		t.Fatal(err)
	}
	if err := s.Render(1); err != nil {
		t.Fatal(err)
	}
	if len(rec.draws) != 1 || rec.draws[0].texture != 0 {
		t.Errorf("draws = %+v, want one draw with the white texture", rec.draws)
	}
}

func TestSpriteRenderBindsState(t *testing.T) {
	g, rec := newTestGraphics(t)
	img := newTestImage(t, g, 8, 8)
	s, err := NewSprite(g, nil, img)
	if err != nil {
		t.Fatal(err)
	}
	s.Blend = BlendAdditive
	s.Color = Color{1, 0, 0, 1}
	s.SetOpacity(0.5)

	if err := s.Render(1); err != nil {
		t.Fatal(err)
	}
	if len(rec.draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(rec.draws))
	}
	d := rec.draws[0]
	if d.texture != img.Texture() || d.wrap != WrapClamp {
		t.Errorf("texture %d wrap %v", d.texture, d.wrap)
	}
	if d.program != Program(ProgramSprite)+100 || d.instanced || d.count != len(QuadIndices) {
		t.Errorf("program %d instanced %v count %d", d.program, d.instanced, d.count)
	}
	if d.blend != BlendAdditive {
		t.Errorf("blend = %v, want additive", d.blend)
	}
	if d.color != [4]float32{1, 0, 0, 1} || d.opacity != 0.5 {
		t.Errorf("color %v opacity %v", d.color, d.opacity)
	}
	x, y := apply(d.model, 1, 1)
	assertNear32(t, "corner x", x, 8)
	assertNear32(t, "corner y", y, 8)
}

func TestSpriteSrcRect(t *testing.T) {
	g, rec := newTestGraphics(t)
	img := newTestImage(t, g, 64, 32)
	s, err := NewSprite(g, nil, img)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.SetSrcRect(Rect{16, 8, 16, 8}); err != nil {
		t.Fatal(err)
	}
	if s.Size() != (Size{16, 8}) {
		t.Errorf("Size = %v, want the rect size", s.Size())
	}
	if err := s.Render(1); err != nil {
		t.Fatal(err)
	}
	if got := uvs(t, rec, &s.Renderable); got != [4]float32{0.25, 0.25, 0.5, 0.5} {
		t.Errorf("uvs = %v", got)
	}

	for _, r := range []Rect{{}, {0, 0, 0, 8}, {0, 0, 8, -1}} {
		if err := s.SetSrcRect(r); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("SetSrcRect(%v) = %v, want ErrInvalidArgument", r, err)
		}
	}
	if s.SrcRect() != (Rect{16, 8, 16, 8}) {
		t.Error("rejected rect replaced the source rect")
	}
}

func TestSpriteFlip(t *testing.T) {
	tests := []struct {
		flip Flip
		want [4]float32
	}{
		{FlipNone, [4]float32{0, 0, 1, 1}},
		{FlipX, [4]float32{1, 0, 0, 1}},
		{FlipY, [4]float32{0, 1, 1, 0}},
		{FlipBoth, [4]float32{1, 1, 0, 0}},
	}
	for _, tt := range tests {
		g, rec := newTestGraphics(t)
		s, err := NewSprite(g, nil, newTestImage(t, g, 4, 4))
		if err != nil {
			t.Fatal(err)
		}
		s.SetFlip(tt.flip)
		if s.Flip() != tt.flip {
			t.Errorf("Flip = %v, want %v", s.Flip(), tt.flip)
		}
		if err := s.Render(1); err != nil {
			t.Fatal(err)
		}
		if got := uvs(t, rec, &s.Renderable); got != tt.want {
			t.Errorf("flip %v: uvs = %v, want %v", tt.flip, got, tt.want)
		}
	}
}

func TestSpriteSetImage(t *testing.T) {
	g, _ := newTestGraphics(t)
	s, err := NewSprite(g, nil, newTestImage(t, g, 4, 4))
	if err != nil {
		t.Fatal(err)
	}
	_ = s.SetSrcRect(Rect{0, 0, 2, 2})

	other := newTestImage(t, g, 10, 20)
	s.SetImage(other)
	if s.Image() != other || s.Size() != (Size{10, 20}) || s.SrcRect() != (Rect{0, 0, 10, 20}) {
		t.Errorf("image %p size %v rect %v", s.Image(), s.Size(), s.SrcRect())
	}
}

func TestSpriteDisposedImage(t *testing.T) {
	g, rec := newTestGraphics(t)
	img := newTestImage(t, g, 4, 4)
	s, err := NewSprite(g, nil, img)
	if err != nil {
		t.Fatal(err)
	}
	img.Dispose()
	img.Dispose()

	if err := s.Render(1); err != nil {
		t.Fatal(err)
	}
	if rec.draws[0].texture != 0 {
		t.Errorf("texture = %d, want 0 after the image is disposed", rec.draws[0].texture)
	}
}

func TestSpriteHiddenDoesNotDraw(t *testing.T) {
	tests := []struct {
		name string
		hide func(s *Sprite)
	}{
		{"invisible", func(s *Sprite) { s.Visible = false }},
		{"transparent", func(s *Sprite) { s.SetOpacity(0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, rec := newTestGraphics(t)
			s := newTestSprite(t, g, nil, 0)
			tt.hide(s)
			if err := s.Render(1); err != nil {
				t.Fatal(err)
			}
			if len(rec.draws) != 0 {
				t.Error("hidden sprite drew")
			}
		})
	}
}

func TestSpriteDisposed(t *testing.T) {
	g, rec := newTestGraphics(t)
	root := NewBatch()
	s := newTestSprite(t, g, root, 0)
	vb, ib := s.Renderable.vertices, s.indices

	s.Dispose()
	if _, ok := rec.buffers[vb]; ok {
		t.Error("vertex buffer not deleted")
	}
	if _, ok := rec.indices[ib]; ok {
		t.Error("index buffer not deleted")
	}
	if s.ID() != 0 {
		t.Errorf("ID = %d after Dispose, want 0", s.ID())
	}
	if err := s.Render(1); !errors.Is(err, ErrDisposed) {
		t.Errorf("Render = %v, want ErrDisposed", err)
	}
	if err := s.Update(tick); !errors.Is(err, ErrDisposed) {
		t.Errorf("Update = %v, want ErrDisposed", err)
	}
	mustPanicDisposed(t, "SetSrcRect", func() { _ = s.SetSrcRect(Rect{0, 0, 1, 1}) })
	mustPanicDisposed(t, "SetFlip", func() { s.SetFlip(FlipX) })
	mustPanicDisposed(t, "SetZ", func() { s.SetZ(3) })
	mustPanicDisposed(t, "Flash", func() { s.Flash(ColorWhite, 2) })
}

func TestNewAtlasSpriteErrors(t *testing.T) {
	g, _ := newTestGraphics(t)
	img := newTestImage(t, g, 64, 32)
	tests := []struct {
		name          string
		img           *Image
		columns, rows int
	}{
		{"nil image", nil, 1, 1},
		{"zero columns", img, 0, 1},
		{"negative rows", img, 2, -1},
		{"more columns than pixels", img, 65, 1},
		{"more rows than pixels", img, 1, 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAtlasSprite(g, nil, tt.img, tt.columns, tt.rows); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestAtlasSpriteSelect(t *testing.T) {
	g, rec := newTestGraphics(t)
	img := newTestImage(t, g, 64, 32)
	a, err := NewAtlasSprite(g, nil, img, 4, 2)
	if err != nil {
		t.Fatal(err)
	}

	if c, r := a.Grid(); c != 4 || r != 2 {
		t.Errorf("Grid = %d, %d", c, r)
	}
	if a.CellSize() != (Size{16, 16}) || a.Size() != (Size{16, 16}) {
		t.Errorf("cell %v size %v", a.CellSize(), a.Size())
	}

	tests := []struct {
		name         string
		sel          func()
		wantX, wantY int
	}{
		{"first", func() { a.Select(0, 0) }, 0, 0},
		{"inside", func() { a.Select(2, 1) }, 2, 1},
		{"wraps forward", func() { a.Select(5, 2) }, 1, 0},
		{"wraps backward", func() { a.Select(-1, -1) }, 3, 1},
		{"index", func() { a.SelectIndex(6) }, 2, 1},
		{"index wraps", func() { a.SelectIndex(-1) }, 3, 1},
		{"index past end", func() { a.SelectIndex(9) }, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.sel()
			x, y := a.Cell()
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("Cell = %d, %d, want %d, %d", x, y, tt.wantX, tt.wantY)
			}
			want := Rect{float64(16 * tt.wantX), float64(16 * tt.wantY), 16, 16}
			if a.SrcRect() != want {
				t.Errorf("SrcRect = %v, want %v", a.SrcRect(), want)
			}
		})
	}

	a.Select(1, 1)
	if err := a.Render(1); err != nil {
		t.Fatal(err)
	}
	if got := uvs(t, rec, &a.Renderable); got != [4]float32{0.25, 0.5, 0.5, 1} {
		t.Errorf("uvs = %v", got)
	}
}
