package canopy

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// drawCall is one DrawIndexed or DrawInstanced call as seen by recorder,
// with the state bound at the time.
type drawCall struct {
	target     Target
	program    Program
	texture    Texture
	wrap       Wrap
	blend      Blend
	instanced  bool
	count      int
	instances  int
	projection mgl32.Mat4
	model      mgl32.Mat4
	color      [4]float32
	opacity    float32
}

// recorder is an in-memory Backend that keeps every resource and records
// every draw.
type recorder struct {
	next uint32

	buffers  map[Buffer][]float32
	indices  map[Buffer][]uint16
	textures map[Texture][]byte
	targets  map[Target]Texture

	programCalls map[ProgramKind]int
	program      Program
	texture      Texture
	wrap         Wrap
	blend        Blend
	mat4         map[string]mgl32.Mat4
	vec4         map[string][4]float32
	floats       map[string]float32

	stack   []Target
	pushes  []Target
	clears  []Color
	areas   []Rect
	resizes int
	draws   []drawCall

	failDraw error
}

var errDrawFailed = errors.New("draw failed")

func newRecorder() *recorder {
	return &recorder{
		buffers:      make(map[Buffer][]float32),
		indices:      make(map[Buffer][]uint16),
		textures:     make(map[Texture][]byte),
		targets:      make(map[Target]Texture),
		programCalls: make(map[ProgramKind]int),
		mat4:         make(map[string]mgl32.Mat4),
		vec4:         make(map[string][4]float32),
		floats:       make(map[string]float32),
	}
}

func (r *recorder) handle() uint32 {
	r.next++
	return r.next
}

func (r *recorder) NewVertexBuffer(data []float32, _ BufferUsage) (Buffer, error) {
	b := Buffer(r.handle())
	r.buffers[b] = append([]float32(nil), data...)
	return b, nil
}

func (r *recorder) NewIndexBuffer(data []uint16) (Buffer, error) {
	b := Buffer(r.handle())
	r.indices[b] = append([]uint16(nil), data...)
	return b, nil
}

func (r *recorder) WriteBuffer(b Buffer, offset int, data []float32) error {
	buf, ok := r.buffers[b]
	if !ok {
		return ErrInvalidArgument
	}
	if end := offset + len(data); end > len(buf) {
		buf = append(buf, make([]float32, end-len(buf))...)
	}
	copy(buf[offset:], data)
	r.buffers[b] = buf
	return nil
}

func (r *recorder) DeleteBuffer(b Buffer) {
	delete(r.buffers, b)
	delete(r.indices, b)
}

func (r *recorder) NewTexture(w, h int, pix []byte) (Texture, error) {
	t := Texture(r.handle())
	if pix == nil {
		pix = make([]byte, w*h*4)
	}
	r.textures[t] = append([]byte(nil), pix...)
	return t, nil
}

func (r *recorder) DeleteTexture(t Texture) { delete(r.textures, t) }

func (r *recorder) NewTarget(w, h int) (Target, Texture, error) {
	t := Target(r.handle())
	tex, _ := r.NewTexture(w, h, nil)
	r.targets[t] = tex
	return t, tex, nil
}

func (r *recorder) ResizeTarget(t Target, _, _ int) error {
	if _, ok := r.targets[t]; !ok {
		return ErrInvalidArgument
	}
	r.resizes++
	return nil
}

func (r *recorder) DeleteTarget(t Target) {
	delete(r.textures, r.targets[t])
	delete(r.targets, t)
}

func (r *recorder) Program(k ProgramKind) (Program, error) {
	r.programCalls[k]++
	return Program(k) + 100, nil
}

func (r *recorder) UseProgram(p Program) { r.program = p }

func (r *recorder) SetUniformMat4(name string, m mgl32.Mat4) { r.mat4[name] = m }

func (r *recorder) SetUniformVec4(name string, v [4]float32) { r.vec4[name] = v }

func (r *recorder) SetUniformFloat(name string, v float32) { r.floats[name] = v }

func (r *recorder) SetBlend(b Blend) { r.blend = b }

func (r *recorder) BindTexture(t Texture, wrap Wrap) {
	r.texture = t
	r.wrap = wrap
}

func (r *recorder) current() Target {
	if len(r.stack) == 0 {
		return 0
	}
	return r.stack[len(r.stack)-1]
}

func (r *recorder) record(instanced bool, count, n int) error {
	if r.failDraw != nil {
		return r.failDraw
	}
	r.draws = append(r.draws, drawCall{
		target:     r.current(),
		program:    r.program,
		texture:    r.texture,
		wrap:       r.wrap,
		blend:      r.blend,
		instanced:  instanced,
		count:      count,
		instances:  n,
		projection: r.mat4[UniformProjection],
		model:      r.mat4[UniformModel],
		color:      r.vec4[UniformColor],
		opacity:    r.floats[UniformOpacity],
	})
	return nil
}

func (r *recorder) DrawIndexed(_, _ Buffer, count int) error {
	return r.record(false, count, 0)
}

func (r *recorder) DrawInstanced(_, _ Buffer, count int, _ Buffer, n int) error {
	return r.record(true, count, n)
}

func (r *recorder) PushTarget(t Target, clear Color, viewport Rect) error {
	r.stack = append(r.stack, t)
	r.pushes = append(r.pushes, t)
	r.clears = append(r.clears, clear)
	r.areas = append(r.areas, viewport)
	return nil
}

func (r *recorder) PopTarget() error {
	if len(r.stack) == 0 {
		return errors.New("pop on empty target stack")
	}
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

// newTestGraphics returns a 320x240 render context over a fresh recorder.
func newTestGraphics(t *testing.T) (*Graphics, *recorder) {
	t.Helper()
	rec := newRecorder()
	g, err := NewGraphics(rec, 320, 240)
	if err != nil {
		t.Fatal(err)
	}
	return g, rec
}

// newTestImage creates a w x h opaque white image.
func newTestImage(t *testing.T, g *Graphics, w, h int) *Image {
	t.Helper()
	pix := make([]byte, w*h*4)
	for i := range pix {
		pix[i] = 255
	}
	img, err := g.NewImage(w, h, pix)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// assertNear32 compares float32 results of matrix math.
func assertNear32(t *testing.T, name string, got, want float32) {
	t.Helper()
	if math.Abs(float64(got-want)) > 1e-4 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// apply maps the point (x, y) through m.
func apply(m mgl32.Mat4, x, y float32) (float32, float32) {
	v := m.Mul4x1(mgl32.Vec4{x, y, 0, 1})
	return v.X(), v.Y()
}

// mustPanicDisposed fails the test unless fn panics with ErrDisposed.
func mustPanicDisposed(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrDisposed) {
			t.Errorf("%s: recovered %v, want ErrDisposed panic", name, r)
		}
	}()
	fn()
}
