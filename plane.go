package canopy

import (
	"fmt"
	"math"
)

// Plane fills its rectangle with an image repeated in both directions. The
// pattern scrolls by Scroll pixels per second and is magnified by Zoom.
type Plane struct {
	Renderable

	// Scroll is the pattern velocity in image pixels per second.
	Scroll Vec2

	image  *Image
	origin Vec2
	zoom   Vec2
	last   [4]float32
}

// NewPlane creates a w x h plane tiled with img and adds it to batch.
func NewPlane(g *Graphics, batch *Batch, img *Image, w, h int) (*Plane, error) {
	if img == nil {
		return nil, fmt.Errorf("canopy: new plane: nil image: %w", ErrInvalidArgument)
	}
	p := &Plane{image: img, zoom: Vec2{1, 1}}
	if err := p.init(g, p, batch, quadVertices(0, 0, 1, 1), UsageDynamic); err != nil {
		return nil, err
	}
	if err := p.SetSize(w, h); err != nil {
		p.Dispose()
		return nil, err
	}
	p.program = ProgramSprite
	p.wrap = WrapRepeat
	return p, nil
}

func (p *Plane) base() *Renderable {
	if p == nil {
		return nil
	}
	return &p.Renderable
}

// Image returns the tiled image.
func (p *Plane) Image() *Image { return p.image }

// Origin returns the image pixel shown at the plane's top-left corner.
func (p *Plane) Origin() Vec2 { return p.origin }

// SetOrigin moves the pattern so that image pixel (x, y) is at the
// top-left corner.
func (p *Plane) SetOrigin(x, y float64) {
	p.mustLive("SetOrigin")
	p.origin = Vec2{x, y}
}

// Zoom returns the pattern magnification.
func (p *Plane) Zoom() Vec2 { return p.zoom }

// SetZoom magnifies the pattern. Both factors must be positive.
func (p *Plane) SetZoom(zx, zy float64) error {
	p.mustLive("SetZoom")
	if zx <= 0 || zy <= 0 {
		return fmt.Errorf("canopy: plane zoom %gx%g: %w", zx, zy, ErrInvalidArgument)
	}
	p.zoom = Vec2{zx, zy}
	return nil
}

// Update scrolls the pattern, then advances motion and the flash.
func (p *Plane) Update(delta float64) error {
	if err := p.update("plane update", delta); err != nil {
		return err
	}
	p.origin = p.origin.Add(p.Scroll.Scale(delta))
	return nil
}

// Render draws the plane.
func (p *Plane) Render(alpha float64) error {
	ok, err := p.checkRender("plane render")
	if !ok {
		return err
	}
	if uv := p.uv(); uv != p.last {
		if err := p.uploadVertices(quadVertices(uv[0], uv[1], uv[2], uv[3])); err != nil {
			return err
		}
		p.last = uv
	}
	p.texture = textureOf(p.image)
	return p.drawQuad(p.ModelAt(alpha))
}

// uv returns the texture coordinates of the plane's corners. They exceed
// [0, 1] and rely on the repeat wrap mode.
func (p *Plane) uv() [4]float32 {
	iw, ih := float64(p.image.w), float64(p.image.h)
	u0 := math.Mod(p.origin.X, iw) / iw
	v0 := math.Mod(p.origin.Y, ih) / ih
	u1 := u0 + float64(p.size.W)/(iw*p.zoom.X)
	v1 := v0 + float64(p.size.H)/(ih*p.zoom.Y)
	return [4]float32{float32(u0), float32(v0), float32(u1), float32(v1)}
}
