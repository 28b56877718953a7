// Package ebitenbackend implements canopy.Backend on top of Ebitengine.
//
// Ebitengine has no user-visible vertex buffers or instancing, so buffers
// live on the CPU. Every draw projects its vertices with the current
// projection and model matrices and submits them with DrawTrianglesShader;
// instanced draws are expanded to one quad per instance and submitted as a
// single call.
package ebitenbackend

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/phanxgames/canopy"
)

var (
	// ErrUnknownHandle is returned when a handle was never issued or has
	// already been deleted.
	ErrUnknownHandle = errors.New("ebitenbackend: unknown handle")
	// ErrNoScreen is returned when the screen is pushed before SetScreen.
	ErrNoScreen = errors.New("ebitenbackend: no screen image")
	// ErrTargetStack is returned by PopTarget without a matching PushTarget
	// and by draws issued outside any target.
	ErrTargetStack = errors.New("ebitenbackend: target stack empty")
)

type buffer struct {
	data    []float32
	indices []uint16
}

type target struct {
	img *ebiten.Image
	tex canopy.Texture
}

// frame is one entry of the target stack: the sub-image being drawn to.
type frame struct {
	dst *ebiten.Image
	vp  image.Rectangle
}

// Backend draws through Ebitengine. It is not safe for concurrent use; call
// it from the game's Draw.
type Backend struct {
	log *zap.Logger

	next     uint32
	buffers  map[canopy.Buffer]*buffer
	textures map[canopy.Texture]*ebiten.Image
	targets  map[canopy.Target]*target
	shaders  map[canopy.ProgramKind]*ebiten.Shader

	screen *ebiten.Image
	white  *ebiten.Image
	stack  []frame

	program    canopy.ProgramKind
	projection mgl32.Mat4
	model      mgl32.Mat4
	uniforms   map[string]any
	blend      ebiten.Blend
	bound      *ebiten.Image
	warned     map[canopy.Blend]bool

	verts  []ebiten.Vertex
	inds32 []uint32
}

// New returns a backend. A nil logger logs nothing.
func New(log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{
		log:        log,
		buffers:    make(map[canopy.Buffer]*buffer),
		textures:   make(map[canopy.Texture]*ebiten.Image),
		targets:    make(map[canopy.Target]*target),
		shaders:    make(map[canopy.ProgramKind]*ebiten.Shader),
		projection: mgl32.Ident4(),
		model:      mgl32.Ident4(),
		uniforms:   make(map[string]any, 8),
		blend:      ebiten.BlendSourceOver,
		warned:     make(map[canopy.Blend]bool),
	}
}

// SetScreen sets the image target 0 draws to. Call it at the start of every
// Draw with the screen image Ebitengine passes in.
func (b *Backend) SetScreen(screen *ebiten.Image) {
	b.screen = screen
}

func (b *Backend) handle() uint32 {
	b.next++
	return b.next
}

// NewVertexBuffer implements canopy.Backend.
func (b *Backend) NewVertexBuffer(data []float32, _ canopy.BufferUsage) (canopy.Buffer, error) {
	h := canopy.Buffer(b.handle())
	b.buffers[h] = &buffer{data: append([]float32(nil), data...)}
	return h, nil
}

// NewIndexBuffer implements canopy.Backend.
func (b *Backend) NewIndexBuffer(data []uint16) (canopy.Buffer, error) {
	h := canopy.Buffer(b.handle())
	b.buffers[h] = &buffer{indices: append([]uint16(nil), data...)}
	return h, nil
}

// WriteBuffer implements canopy.Backend.
func (b *Backend) WriteBuffer(h canopy.Buffer, offset int, data []float32) error {
	buf, ok := b.buffers[h]
	if !ok {
		return fmt.Errorf("write buffer %d: %w", h, ErrUnknownHandle)
	}
	if offset < 0 {
		return fmt.Errorf("write buffer %d: offset %d: %w", h, offset, canopy.ErrInvalidArgument)
	}
	if end := offset + len(data); end > len(buf.data) {
		buf.data = append(buf.data, make([]float32, end-len(buf.data))...)
	}
	copy(buf.data[offset:], data)
	return nil
}

// DeleteBuffer implements canopy.Backend.
func (b *Backend) DeleteBuffer(h canopy.Buffer) {
	delete(b.buffers, h)
}

// NewTexture implements canopy.Backend.
func (b *Backend) NewTexture(w, h int, pix []byte) (canopy.Texture, error) {
	img := ebiten.NewImage(w, h)
	if pix != nil {
		img.WritePixels(pix)
	}
	t := canopy.Texture(b.handle())
	b.textures[t] = img
	return t, nil
}

// DeleteTexture implements canopy.Backend.
func (b *Backend) DeleteTexture(t canopy.Texture) {
	img, ok := b.textures[t]
	if !ok {
		return
	}
	img.Deallocate()
	delete(b.textures, t)
}

// Image returns the Ebitengine image behind a texture handle.
func (b *Backend) Image(t canopy.Texture) (*ebiten.Image, bool) {
	img, ok := b.textures[t]
	return img, ok
}

// NewTarget implements canopy.Backend. The target's image doubles as its
// texture.
func (b *Backend) NewTarget(w, h int) (canopy.Target, canopy.Texture, error) {
	img := ebiten.NewImage(w, h)
	t := canopy.Target(b.handle())
	tex := canopy.Texture(b.handle())
	b.targets[t] = &target{img: img, tex: tex}
	b.textures[tex] = img
	return t, tex, nil
}

// ResizeTarget implements canopy.Backend.
func (b *Backend) ResizeTarget(t canopy.Target, w, h int) error {
	tg, ok := b.targets[t]
	if !ok {
		return fmt.Errorf("resize target %d: %w", t, ErrUnknownHandle)
	}
	tg.img.Deallocate()
	tg.img = ebiten.NewImage(w, h)
	b.textures[tg.tex] = tg.img
	return nil
}

// DeleteTarget implements canopy.Backend.
func (b *Backend) DeleteTarget(t canopy.Target) {
	tg, ok := b.targets[t]
	if !ok {
		return
	}
	tg.img.Deallocate()
	delete(b.textures, tg.tex)
	delete(b.targets, t)
}

// PushTarget implements canopy.Backend.
func (b *Backend) PushTarget(t canopy.Target, clear canopy.Color, viewport canopy.Rect) error {
	var img *ebiten.Image
	if t == 0 {
		if b.screen == nil {
			return ErrNoScreen
		}
		img = b.screen
	} else {
		tg, ok := b.targets[t]
		if !ok {
			return fmt.Errorf("push target %d: %w", t, ErrUnknownHandle)
		}
		img = tg.img
	}
	vp := image.Rect(
		int(viewport.X), int(viewport.Y),
		int(viewport.X+viewport.Width), int(viewport.Y+viewport.Height),
	).Intersect(img.Bounds())
	dst := img.SubImage(vp).(*ebiten.Image)
	dst.Fill(toNRGBA(clear))
	b.stack = append(b.stack, frame{dst: dst, vp: vp})
	return nil
}

// PopTarget implements canopy.Backend.
func (b *Backend) PopTarget() error {
	if len(b.stack) == 0 {
		return ErrTargetStack
	}
	b.stack[len(b.stack)-1] = frame{}
	b.stack = b.stack[:len(b.stack)-1]
	return nil
}

// Program implements canopy.Backend. Shaders are compiled on first use.
func (b *Backend) Program(kind canopy.ProgramKind) (canopy.Program, error) {
	if _, err := b.shader(kind); err != nil {
		return 0, err
	}
	return canopy.Program(kind) + 1, nil
}

// UseProgram implements canopy.Backend.
func (b *Backend) UseProgram(p canopy.Program) {
	if p == 0 {
		return
	}
	b.program = canopy.ProgramKind(p - 1)
}

// SetUniformMat4 implements canopy.Backend. Projection and model are consumed
// on the CPU; other matrices are passed to the shader.
func (b *Backend) SetUniformMat4(name string, m mgl32.Mat4) {
	switch name {
	case canopy.UniformProjection:
		b.projection = m
	case canopy.UniformModel:
		b.model = m
	default:
		b.uniforms[kageName(name)] = m[:]
	}
}

// SetUniformVec4 implements canopy.Backend.
func (b *Backend) SetUniformVec4(name string, v [4]float32) {
	b.uniforms[kageName(name)] = []float32{v[0], v[1], v[2], v[3]}
}

// SetUniformFloat implements canopy.Backend.
func (b *Backend) SetUniformFloat(name string, v float32) {
	b.uniforms[kageName(name)] = v
}

// SetBlend implements canopy.Backend.
func (b *Backend) SetBlend(bl canopy.Blend) {
	eb, ok := ebitenBlend(bl)
	if !ok && !b.warned[bl] {
		b.warned[bl] = true
		b.log.Warn("unsupported blend, using source-over",
			zap.Uint32("op", bl.Op), zap.Uint32("src", bl.Src), zap.Uint32("dst", bl.Dst))
	}
	b.blend = eb
}

// BindTexture implements canopy.Backend.
func (b *Backend) BindTexture(t canopy.Texture, wrap canopy.Wrap) {
	img, ok := b.textures[t]
	if t == 0 || !ok {
		img = b.whiteImage()
	}
	b.bound = img
	if wrap == canopy.WrapRepeat {
		b.uniforms[uniformWrap] = float32(1)
	} else {
		b.uniforms[uniformWrap] = float32(0)
	}
}

func (b *Backend) whiteImage() *ebiten.Image {
	if b.white == nil {
		b.white = ebiten.NewImage(1, 1)
		b.white.Fill(color.White)
	}
	return b.white
}

func (b *Backend) current() (frame, error) {
	if len(b.stack) == 0 {
		return frame{}, ErrTargetStack
	}
	return b.stack[len(b.stack)-1], nil
}

func toNRGBA(c canopy.Color) color.NRGBA {
	c = c.Clamped()
	return color.NRGBA{
		R: uint8(c.R*255 + 0.5),
		G: uint8(c.G*255 + 0.5),
		B: uint8(c.B*255 + 0.5),
		A: uint8(c.A*255 + 0.5),
	}
}
