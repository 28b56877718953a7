package canopy

import "fmt"

// Sprite draws an image, or a rectangular part of one, as a quad.
type Sprite struct {
	Renderable

	image   *Image
	srcRect Rect
	flip    Flip
	uvDirty bool
}

// NewSprite creates a sprite showing img and adds it to batch. img may be
// nil, in which case the sprite is a solid rectangle in its tint color with
// zero size until SetSize is called.
func NewSprite(g *Graphics, batch *Batch, img *Image) (*Sprite, error) {
	s := &Sprite{}
	if err := s.initSprite(g, s, batch, img); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sprite) initSprite(g *Graphics, owner Drawable, batch *Batch, img *Image) error {
	if err := s.init(g, owner, batch, quadVertices(0, 0, 1, 1), UsageDynamic); err != nil {
		return err
	}
	s.program = ProgramSprite
	s.image = img
	if img != nil {
		s.srcRect = Rect{0, 0, float64(img.w), float64(img.h)}
		s.size = Size{img.w, img.h}
	}
	return nil
}

func (s *Sprite) base() *Renderable {
	if s == nil {
		return nil
	}
	return &s.Renderable
}

// Image returns the sprite's image.
func (s *Sprite) Image() *Image { return s.image }

// SetImage replaces the image and resets the source rect and size to cover
// all of it.
func (s *Sprite) SetImage(img *Image) {
	s.mustLive("SetImage")
	s.image = img
	if img == nil {
		s.srcRect = Rect{}
		s.uvDirty = true
		return
	}
	s.srcRect = Rect{0, 0, float64(img.w), float64(img.h)}
	s.size = Size{img.w, img.h}
	s.dirty = true
	s.uvDirty = true
}

// SrcRect returns the region of the image the sprite shows, in pixels.
func (s *Sprite) SrcRect() Rect { return s.srcRect }

// SetSrcRect shows only r of the image and resizes the sprite to match.
// An empty rect is rejected.
func (s *Sprite) SetSrcRect(r Rect) error {
	s.mustLive("SetSrcRect")
	if r.Empty() {
		return fmt.Errorf("canopy: src rect %v: %w", r, ErrInvalidArgument)
	}
	s.srcRect = r
	s.size = Size{int(r.Width), int(r.Height)}
	s.dirty = true
	s.uvDirty = true
	return nil
}

// Flip returns the mirroring flags.
func (s *Sprite) Flip() Flip { return s.flip }

// SetFlip mirrors the texture horizontally, vertically, or both.
func (s *Sprite) SetFlip(f Flip) {
	s.mustLive("SetFlip")
	if s.flip == f {
		return
	}
	s.flip = f
	s.uvDirty = true
}

// Update advances motion and the flash countdown.
func (s *Sprite) Update(delta float64) error {
	return s.update("sprite update", delta)
}

// Render draws the sprite.
func (s *Sprite) Render(alpha float64) error {
	ok, err := s.checkRender("sprite render")
	if !ok {
		return err
	}
	if s.uvDirty {
		if err := s.uploadVertices(s.quad()); err != nil {
			return err
		}
		s.uvDirty = false
	}
	s.texture = textureOf(s.image)
	return s.drawQuad(s.ModelAt(alpha))
}

// quad returns the vertices with texture coordinates for the source rect
// and flip flags.
func (s *Sprite) quad() []float32 {
	u0, v0, u1, v1 := float32(0), float32(0), float32(1), float32(1)
	if s.image != nil && !s.srcRect.Empty() {
		w, h := float64(s.image.w), float64(s.image.h)
		u0 = float32(s.srcRect.X / w)
		v0 = float32(s.srcRect.Y / h)
		u1 = float32((s.srcRect.X + s.srcRect.Width) / w)
		v1 = float32((s.srcRect.Y + s.srcRect.Height) / h)
	}
	if s.flip&FlipX != 0 {
		u0, u1 = u1, u0
	}
	if s.flip&FlipY != 0 {
		v0, v1 = v1, v0
	}
	return quadVertices(u0, v0, u1, v1)
}

// AtlasSprite is a sprite over an image divided into a grid of equally sized
// cells, showing one cell at a time.
type AtlasSprite struct {
	Sprite

	columns, rows int
	cellX, cellY  int
}

// NewAtlasSprite creates a sprite over img split into columns x rows cells,
// showing cell (0, 0).
func NewAtlasSprite(g *Graphics, batch *Batch, img *Image, columns, rows int) (*AtlasSprite, error) {
	if img == nil {
		return nil, fmt.Errorf("canopy: new atlas sprite: nil image: %w", ErrInvalidArgument)
	}
	if columns <= 0 || rows <= 0 || columns > img.w || rows > img.h {
		return nil, fmt.Errorf("canopy: new atlas sprite: %dx%d cells over %dx%d: %w",
			columns, rows, img.w, img.h, ErrInvalidArgument)
	}
	a := &AtlasSprite{columns: columns, rows: rows}
	if err := a.initSprite(g, a, batch, img); err != nil {
		return nil, err
	}
	a.Select(0, 0)
	return a, nil
}

func (a *AtlasSprite) base() *Renderable {
	if a == nil {
		return nil
	}
	return &a.Renderable
}

// Grid returns the number of columns and rows.
func (a *AtlasSprite) Grid() (columns, rows int) { return a.columns, a.rows }

// CellSize returns the size of one cell in pixels.
func (a *AtlasSprite) CellSize() Size {
	return Size{a.image.w / a.columns, a.image.h / a.rows}
}

// Cell returns the selected cell.
func (a *AtlasSprite) Cell() (x, y int) { return a.cellX, a.cellY }

// Select shows cell (x, y). Coordinates outside the grid wrap around, so
// stepping past the last column returns to the first.
func (a *AtlasSprite) Select(x, y int) {
	a.mustLive("Select")
	a.cellX = wrapIndex(x, a.columns)
	a.cellY = wrapIndex(y, a.rows)
	cs := a.CellSize()
	a.srcRect = Rect{
		X:      float64(a.cellX * cs.W),
		Y:      float64(a.cellY * cs.H),
		Width:  float64(cs.W),
		Height: float64(cs.H),
	}
	a.size = cs
	a.dirty = true
	a.uvDirty = true
}

// SelectIndex shows the i-th cell counted row by row.
func (a *AtlasSprite) SelectIndex(i int) {
	i = wrapIndex(i, a.columns*a.rows)
	a.Select(i%a.columns, i/a.columns)
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
