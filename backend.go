package canopy

import "github.com/go-gl/mathgl/mgl32"

// Handles are opaque identifiers issued by a Backend. The zero value of each
// means "none"; for Target it means the screen.
type (
	Buffer  uint32
	Texture uint32
	Target  uint32
	Program uint32
)

// BufferUsage hints how often a vertex buffer is rewritten.
type BufferUsage uint8

const (
	UsageStatic BufferUsage = iota
	UsageDynamic
)

// Wrap selects how texture coordinates outside [0, 1] are sampled.
type Wrap uint8

const (
	WrapClamp Wrap = iota
	WrapRepeat
)

// ProgramKind names one of the built-in shader programs every backend
// provides.
type ProgramKind uint8

const (
	// ProgramSprite draws textured quads with vertices laid out as
	// (x, y, u, v) on the unit square, multiplied by projection * model.
	// Uniforms: projection, model, color, tone, flash, hue, opacity.
	ProgramSprite ProgramKind = iota
	// ProgramParticle draws one centered unit quad per instance. Instance
	// data is InstanceStride floats: x, y, size, rotation (radians), r, g, b,
	// a. Uniforms: projection, model, round.
	ProgramParticle
)

func (k ProgramKind) String() string {
	switch k {
	case ProgramSprite:
		return "sprite"
	case ProgramParticle:
		return "particle"
	default:
		return "unknown"
	}
}

// Uniform names understood by the built-in programs.
const (
	UniformProjection = "projection"
	UniformModel      = "model"
	UniformColor      = "color"
	UniformTone       = "tone"
	UniformFlash      = "flash"
	UniformHue        = "hue"
	UniformOpacity    = "opacity"
	UniformRound      = "round"
)

const (
	// VertexStride is the number of floats per quad vertex: x, y, u, v.
	VertexStride = 4
	// InstanceStride is the number of floats per particle instance.
	InstanceStride = 8
)

// QuadIndices triangulates the four quad vertices written by quadVertices.
var QuadIndices = []uint16{0, 1, 2, 0, 3, 1}

// Backend is the graphics device as seen by the scene graph. Calls are made
// from a single goroutine in frame order. Uniform setters apply to the
// program most recently passed to UseProgram.
//
// Texture coordinate (0, 0) addresses the top-left texel of every texture,
// including the textures backing offscreen targets.
type Backend interface {
	NewVertexBuffer(data []float32, usage BufferUsage) (Buffer, error)
	NewIndexBuffer(data []uint16) (Buffer, error)
	// WriteBuffer replaces data starting at offset, counted in floats. Writes
	// past the end grow the buffer.
	WriteBuffer(b Buffer, offset int, data []float32) error
	DeleteBuffer(b Buffer)

	// NewTexture creates a w x h RGBA texture from premultiplied 8-bit
	// pixels. A nil pix creates a transparent texture.
	NewTexture(w, h int, pix []byte) (Texture, error)
	DeleteTexture(t Texture)

	// NewTarget creates an offscreen render target and the texture its
	// contents can be sampled from.
	NewTarget(w, h int) (Target, Texture, error)
	// ResizeTarget reallocates t at the new size. The texture handle stays
	// valid; its previous contents are lost.
	ResizeTarget(t Target, w, h int) error
	// DeleteTarget releases t and its texture.
	DeleteTarget(t Target)

	Program(kind ProgramKind) (Program, error)
	UseProgram(p Program)
	SetUniformMat4(name string, m mgl32.Mat4)
	SetUniformVec4(name string, v [4]float32)
	SetUniformFloat(name string, v float32)

	SetBlend(b Blend)
	// BindTexture binds t for the next draw. Texture 0 binds a 1x1 opaque
	// white texture.
	BindTexture(t Texture, wrap Wrap)

	DrawIndexed(vertices, indices Buffer, count int) error
	DrawInstanced(vertices, indices Buffer, count int, instances Buffer, n int) error

	// PushTarget makes t the current render target, clears it to clear, and
	// restricts drawing to viewport. PopTarget restores the previous target.
	PushTarget(t Target, clear Color, viewport Rect) error
	PopTarget() error
}

// quadVertices returns the unit quad in (x, y, u, v) layout with the given
// texture coordinates at its corners. Vertex order is top-left,
// bottom-right, bottom-left, top-right to match QuadIndices.
func quadVertices(u0, v0, u1, v1 float32) []float32 {
	return []float32{
		0, 0, u0, v0,
		1, 1, u1, v1,
		0, 1, u0, v1,
		1, 0, u1, v0,
	}
}

// centeredQuadVertices is the particle quad, centered on the origin.
func centeredQuadVertices() []float32 {
	return []float32{
		-0.5, -0.5, 0, 0,
		0.5, 0.5, 1, 1,
		-0.5, 0.5, 0, 1,
		0.5, -0.5, 1, 0,
	}
}
