package ebitenbackend

import (
	"fmt"
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/canopy"
)

// project maps a model-space point through mvp to pixel coordinates inside
// vp. Clip-space y = +1 is the top edge of vp.
func project(mvp mgl32.Mat4, x, y float32, vp image.Rectangle) (float32, float32) {
	v := mvp.Mul4x1(mgl32.Vec4{x, y, 0, 1})
	w := v[3]
	if w == 0 {
		w = 1
	}
	nx, ny := v[0]/w, v[1]/w
	px := float32(vp.Min.X) + (nx+1)*0.5*float32(vp.Dx())
	py := float32(vp.Min.Y) + (1-ny)*0.5*float32(vp.Dy())
	return px, py
}

// DrawIndexed implements canopy.Backend.
func (b *Backend) DrawIndexed(vertices, indices canopy.Buffer, count int) error {
	vb, ib, err := b.lookup(vertices, indices, count)
	if err != nil {
		return err
	}
	f, err := b.current()
	if err != nil {
		return err
	}
	shader, err := b.shader(b.program)
	if err != nil {
		return err
	}

	src := b.sourceImage()
	sb := src.Bounds()
	ox, oy := float32(sb.Min.X), float32(sb.Min.Y)
	sw, sh := float32(sb.Dx()), float32(sb.Dy())
	mvp := b.projection.Mul4(b.model)

	b.verts = b.verts[:0]
	for i := 0; i+canopy.VertexStride <= len(vb.data); i += canopy.VertexStride {
		d := vb.data[i : i+canopy.VertexStride]
		px, py := project(mvp, d[0], d[1], f.vp)
		b.verts = append(b.verts, ebiten.Vertex{
			DstX:   px,
			DstY:   py,
			SrcX:   ox + d[2]*sw,
			SrcY:   oy + d[3]*sh,
			ColorR: 1,
			ColorG: 1,
			ColorB: 1,
			ColorA: 1,
		})
	}

	var op ebiten.DrawTrianglesShaderOptions
	op.Uniforms = b.uniforms
	op.Images[0] = src
	op.Blend = b.blend
	f.dst.DrawTrianglesShader(b.verts, ib.indices[:count], shader, &op)
	return nil
}

// DrawInstanced implements canopy.Backend. Each instance is canopy.InstanceStride
// floats: x, y, size, rotation, r, g, b, a. The base geometry is scaled by
// size, rotated, and offset by (x, y) before the model matrix applies. All
// instances are submitted in one DrawTrianglesShader32 call.
func (b *Backend) DrawInstanced(vertices, indices canopy.Buffer, count int, instances canopy.Buffer, n int) error {
	vb, ib, err := b.lookup(vertices, indices, count)
	if err != nil {
		return err
	}
	inst, ok := b.buffers[instances]
	if !ok {
		return fmt.Errorf("draw instanced: instances %d: %w", instances, ErrUnknownHandle)
	}
	if n*canopy.InstanceStride > len(inst.data) {
		return fmt.Errorf("draw instanced: %d instances in %d floats: %w",
			n, len(inst.data), canopy.ErrInvalidArgument)
	}
	if n == 0 {
		return nil
	}
	f, err := b.current()
	if err != nil {
		return err
	}
	shader, err := b.shader(b.program)
	if err != nil {
		return err
	}

	src := b.sourceImage()
	sb := src.Bounds()
	ox, oy := float32(sb.Min.X), float32(sb.Min.Y)
	sw, sh := float32(sb.Dx()), float32(sb.Dy())
	mvp := b.projection.Mul4(b.model)
	perInstance := len(vb.data) / canopy.VertexStride

	b.verts = b.verts[:0]
	b.inds32 = b.inds32[:0]
	for i := 0; i < n; i++ {
		d := inst.data[i*canopy.InstanceStride : (i+1)*canopy.InstanceStride]
		x, y, size := d[0], d[1], d[2]
		sin, cos := math.Sincos(float64(d[3]))
		s, c := float32(sin), float32(cos)
		a := d[7]
		cr, cg, cb := d[4]*a, d[5]*a, d[6]*a

		base := uint32(len(b.verts))
		for j := 0; j+canopy.VertexStride <= len(vb.data); j += canopy.VertexStride {
			v := vb.data[j : j+canopy.VertexStride]
			lx, ly := v[0]*size, v[1]*size
			px, py := project(mvp, x+lx*c-ly*s, y+lx*s+ly*c, f.vp)
			b.verts = append(b.verts, ebiten.Vertex{
				DstX:   px,
				DstY:   py,
				SrcX:   ox + v[2]*sw,
				SrcY:   oy + v[3]*sh,
				ColorR: cr,
				ColorG: cg,
				ColorB: cb,
				ColorA: a,
			})
		}
		for _, idx := range ib.indices[:count] {
			if int(idx) < perInstance {
				b.inds32 = append(b.inds32, base+uint32(idx))
			}
		}
	}

	var op ebiten.DrawTrianglesShaderOptions
	op.Uniforms = b.uniforms
	op.Images[0] = src
	op.Blend = b.blend
	f.dst.DrawTrianglesShader32(b.verts, b.inds32, shader, &op)
	return nil
}

func (b *Backend) lookup(vertices, indices canopy.Buffer, count int) (*buffer, *buffer, error) {
	vb, ok := b.buffers[vertices]
	if !ok {
		return nil, nil, fmt.Errorf("draw: vertices %d: %w", vertices, ErrUnknownHandle)
	}
	ib, ok := b.buffers[indices]
	if !ok {
		return nil, nil, fmt.Errorf("draw: indices %d: %w", indices, ErrUnknownHandle)
	}
	if count < 0 || count > len(ib.indices) {
		return nil, nil, fmt.Errorf("draw: %d indices of %d: %w", count, len(ib.indices), canopy.ErrInvalidArgument)
	}
	return vb, ib, nil
}

func (b *Backend) sourceImage() *ebiten.Image {
	if b.bound == nil {
		return b.whiteImage()
	}
	return b.bound
}
