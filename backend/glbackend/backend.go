// Package glbackend implements canopy.Backend on OpenGL 4.1 core through
// go-gl. All methods must be called from the thread that owns the GL
// context; Window takes care of that for hosts using SDL2.
package glbackend

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/phanxgames/canopy"
)

var (
	// ErrUnknownHandle is returned when a handle was never issued or has
	// already been deleted.
	ErrUnknownHandle = errors.New("glbackend: unknown handle")
	// ErrTargetStack is returned by PopTarget without a matching PushTarget.
	ErrTargetStack = errors.New("glbackend: target stack empty")
)

type buffer struct {
	id      uint32
	element bool
	usage   uint32
	data    []float32 // shadow copy of vertex data, used to grow the buffer
	count   int
}

type target struct {
	fbo  uint32
	tex  uint32
	w, h int32
}

type frame struct {
	fbo     uint32
	vp      [4]int32
	flipped bool
}

type program struct {
	id       uint32
	uniforms map[string]int32
}

// Backend draws with OpenGL. It is not safe for concurrent use.
type Backend struct {
	log *zap.Logger

	screenW, screenH int
	scale            float64

	vao      uint32
	buffers  map[canopy.Buffer]*buffer
	textures map[canopy.Texture]uint32
	targets  map[canopy.Target]*target
	programs map[canopy.Program]*program
	white    uint32

	stack   []frame
	current *program
}

// New returns a backend for a screen of w x h pixels. The GL context must
// be current and gl.Init must have been called.
func New(log *zap.Logger, w, h int) (*Backend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Backend{
		log:      log,
		screenW:  w,
		screenH:  h,
		scale:    1,
		buffers:  make(map[canopy.Buffer]*buffer),
		textures: make(map[canopy.Texture]uint32),
		targets:  make(map[canopy.Target]*target),
		programs: make(map[canopy.Program]*program),
	}
	gl.GenVertexArrays(1, &b.vao)
	gl.Enable(gl.BLEND)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)

	log.Info("OpenGL backend ready",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)
	return b, nil
}

// Resize updates the size of the default framebuffer in pixels.
func (b *Backend) Resize(w, h int) {
	b.screenW, b.screenH = w, h
}

// SetPixelScale sets the ratio of framebuffer pixels to screen units, as on
// high-DPI displays. Screen viewports are scaled by it.
func (b *Backend) SetPixelScale(s float64) {
	if s > 0 {
		b.scale = s
	}
}

// Close releases the objects the backend created for itself. Drawables own
// their buffers and must be disposed separately.
func (b *Backend) Close() {
	if b.white != 0 {
		gl.DeleteTextures(1, &b.white)
		b.white = 0
	}
	for h, p := range b.programs {
		gl.DeleteProgram(p.id)
		delete(b.programs, h)
	}
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
}

// NewVertexBuffer implements canopy.Backend.
func (b *Backend) NewVertexBuffer(data []float32, usage canopy.BufferUsage) (canopy.Buffer, error) {
	buf := &buffer{usage: gl.STATIC_DRAW, data: append([]float32(nil), data...)}
	if usage == canopy.UsageDynamic {
		buf.usage = gl.DYNAMIC_DRAW
	}
	gl.GenBuffers(1, &buf.id)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf.id)
	gl.BufferData(gl.ARRAY_BUFFER, len(buf.data)*4, ptr(buf.data), buf.usage)
	buf.count = len(buf.data)
	h := canopy.Buffer(buf.id)
	b.buffers[h] = buf
	return h, nil
}

// NewIndexBuffer implements canopy.Backend.
func (b *Backend) NewIndexBuffer(data []uint16) (canopy.Buffer, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("glbackend: empty index buffer: %w", canopy.ErrInvalidArgument)
	}
	buf := &buffer{element: true, usage: gl.STATIC_DRAW, count: len(data)}
	gl.GenBuffers(1, &buf.id)
	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buf.id)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data)*2, gl.Ptr(data), buf.usage)
	gl.BindVertexArray(0)
	h := canopy.Buffer(buf.id)
	b.buffers[h] = buf
	return h, nil
}

// WriteBuffer implements canopy.Backend.
func (b *Backend) WriteBuffer(h canopy.Buffer, offset int, data []float32) error {
	buf, ok := b.buffers[h]
	if !ok || buf.element {
		return fmt.Errorf("glbackend: write buffer %d: %w", h, ErrUnknownHandle)
	}
	if offset < 0 {
		return fmt.Errorf("glbackend: write buffer %d: offset %d: %w", h, offset, canopy.ErrInvalidArgument)
	}
	if len(data) == 0 {
		return nil
	}
	end := offset + len(data)
	if end > len(buf.data) {
		buf.data = append(buf.data, make([]float32, end-len(buf.data))...)
	}
	copy(buf.data[offset:], data)

	gl.BindBuffer(gl.ARRAY_BUFFER, buf.id)
	if len(buf.data) > buf.count {
		gl.BufferData(gl.ARRAY_BUFFER, len(buf.data)*4, ptr(buf.data), buf.usage)
		buf.count = len(buf.data)
		return nil
	}
	gl.BufferSubData(gl.ARRAY_BUFFER, offset*4, len(data)*4, gl.Ptr(data))
	return nil
}

// DeleteBuffer implements canopy.Backend.
func (b *Backend) DeleteBuffer(h canopy.Buffer) {
	buf, ok := b.buffers[h]
	if !ok {
		return
	}
	gl.DeleteBuffers(1, &buf.id)
	delete(b.buffers, h)
}

// NewTexture implements canopy.Backend.
func (b *Backend) NewTexture(w, h int, pix []byte) (canopy.Texture, error) {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	var p unsafe.Pointer
	if pix != nil {
		p = gl.Ptr(pix)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, p)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	t := canopy.Texture(id)
	b.textures[t] = id
	return t, nil
}

// DeleteTexture implements canopy.Backend.
func (b *Backend) DeleteTexture(t canopy.Texture) {
	id, ok := b.textures[t]
	if !ok {
		return
	}
	gl.DeleteTextures(1, &id)
	delete(b.textures, t)
}

// NewTarget implements canopy.Backend.
func (b *Backend) NewTarget(w, h int) (canopy.Target, canopy.Texture, error) {
	tg := &target{w: int32(max(w, 1)), h: int32(max(h, 1))}
	gl.GenFramebuffers(1, &tg.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, tg.fbo)

	gl.GenTextures(1, &tg.tex)
	gl.BindTexture(gl.TEXTURE_2D, tg.tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, tg.w, tg.h, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tg.tex, 0)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	b.restoreFramebuffer()
	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &tg.fbo)
		gl.DeleteTextures(1, &tg.tex)
		return 0, 0, fmt.Errorf("glbackend: framebuffer incomplete: 0x%x", status)
	}

	t := canopy.Target(tg.fbo)
	b.targets[t] = tg
	b.textures[canopy.Texture(tg.tex)] = tg.tex
	return t, canopy.Texture(tg.tex), nil
}

// ResizeTarget implements canopy.Backend.
func (b *Backend) ResizeTarget(t canopy.Target, w, h int) error {
	tg, ok := b.targets[t]
	if !ok {
		return fmt.Errorf("glbackend: resize target %d: %w", t, ErrUnknownHandle)
	}
	tg.w, tg.h = int32(max(w, 1)), int32(max(h, 1))
	gl.BindTexture(gl.TEXTURE_2D, tg.tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, tg.w, tg.h, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	return nil
}

// DeleteTarget implements canopy.Backend.
func (b *Backend) DeleteTarget(t canopy.Target) {
	tg, ok := b.targets[t]
	if !ok {
		return
	}
	gl.DeleteFramebuffers(1, &tg.fbo)
	gl.DeleteTextures(1, &tg.tex)
	delete(b.textures, canopy.Texture(tg.tex))
	delete(b.targets, t)
}

// PushTarget implements canopy.Backend.
func (b *Backend) PushTarget(t canopy.Target, clear canopy.Color, viewport canopy.Rect) error {
	f := frame{}
	if t == 0 {
		viewport = canopy.Rect{
			X:      viewport.X * b.scale,
			Y:      viewport.Y * b.scale,
			Width:  viewport.Width * b.scale,
			Height: viewport.Height * b.scale,
		}
		f.vp = viewportRect(viewport, b.screenH, false)
	} else {
		tg, ok := b.targets[t]
		if !ok {
			return fmt.Errorf("glbackend: push target %d: %w", t, ErrUnknownHandle)
		}
		f.fbo = tg.fbo
		f.flipped = true
		f.vp = viewportRect(viewport, int(tg.h), true)
	}
	b.stack = append(b.stack, f)
	b.apply(f)

	c := premultiply(clear.Clamped().Vec4())
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(f.vp[0], f.vp[1], f.vp[2], f.vp[3])
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return nil
}

// PopTarget implements canopy.Backend.
func (b *Backend) PopTarget() error {
	if len(b.stack) == 0 {
		return ErrTargetStack
	}
	b.stack = b.stack[:len(b.stack)-1]
	b.restoreFramebuffer()
	return nil
}

func (b *Backend) apply(f frame) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, f.fbo)
	gl.Viewport(f.vp[0], f.vp[1], f.vp[2], f.vp[3])
	gl.Scissor(f.vp[0], f.vp[1], f.vp[2], f.vp[3])
}

// restoreFramebuffer rebinds the top of the target stack, or the default
// framebuffer when the stack is empty.
func (b *Backend) restoreFramebuffer() {
	if n := len(b.stack); n > 0 {
		b.apply(b.stack[n-1])
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Disable(gl.SCISSOR_TEST)
	gl.Viewport(0, 0, int32(b.screenW), int32(b.screenH))
}

func (b *Backend) flipped() bool {
	n := len(b.stack)
	return n > 0 && b.stack[n-1].flipped
}

// Program implements canopy.Backend.
func (b *Backend) Program(kind canopy.ProgramKind) (canopy.Program, error) {
	vs, fs, ok := programSource(kind)
	if !ok {
		return 0, fmt.Errorf("glbackend: program %s: %w", kind, ErrUnknownHandle)
	}
	id, err := compileProgram(vs, fs)
	if err != nil {
		return 0, fmt.Errorf("glbackend: compile %s program: %w", kind, err)
	}
	h := canopy.Program(id)
	b.programs[h] = &program{id: id, uniforms: make(map[string]int32)}
	b.log.Debug("compiled program", zap.Stringer("kind", kind), zap.Uint32("id", id))
	return h, nil
}

// UseProgram implements canopy.Backend.
func (b *Backend) UseProgram(p canopy.Program) {
	prog, ok := b.programs[p]
	if !ok {
		b.current = nil
		gl.UseProgram(0)
		return
	}
	b.current = prog
	gl.UseProgram(prog.id)
}

// location returns the uniform location of name in the current program.
func (b *Backend) location(name string) int32 {
	if b.current == nil {
		return -1
	}
	if loc, ok := b.current.uniforms[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(b.current.id, gl.Str(uniformName(name)+"\x00"))
	b.current.uniforms[name] = loc
	return loc
}

// SetUniformMat4 implements canopy.Backend.
func (b *Backend) SetUniformMat4(name string, m mgl32.Mat4) {
	loc := b.location(name)
	if loc < 0 {
		return
	}
	if name == canopy.UniformProjection && b.flipped() {
		m = flipY.Mul4(m)
	}
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

// SetUniformVec4 implements canopy.Backend.
func (b *Backend) SetUniformVec4(name string, v [4]float32) {
	if loc := b.location(name); loc >= 0 {
		gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
	}
}

// SetUniformFloat implements canopy.Backend.
func (b *Backend) SetUniformFloat(name string, v float32) {
	if loc := b.location(name); loc >= 0 {
		gl.Uniform1f(loc, v)
	}
}

// SetBlend implements canopy.Backend. The codes are OpenGL's own and pass
// straight through.
func (b *Backend) SetBlend(bl canopy.Blend) {
	op, src, dst := glBlend(bl)
	gl.BlendEquation(op)
	gl.BlendFunc(src, dst)
}

// BindTexture implements canopy.Backend.
func (b *Backend) BindTexture(t canopy.Texture, wrap canopy.Wrap) {
	id, ok := b.textures[t]
	if t == 0 || !ok {
		id = b.whiteTexture()
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, id)
	mode := int32(gl.CLAMP_TO_EDGE)
	if wrap == canopy.WrapRepeat {
		mode = gl.REPEAT
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, mode)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, mode)
	if loc := b.location("tex"); loc >= 0 {
		gl.Uniform1i(loc, 0)
	}
}

func (b *Backend) whiteTexture() uint32 {
	if b.white == 0 {
		pix := []byte{255, 255, 255, 255}
		gl.GenTextures(1, &b.white)
		gl.BindTexture(gl.TEXTURE_2D, b.white)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, 1, 1, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	}
	return b.white
}

func ptr(data []float32) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return gl.Ptr(data)
}
