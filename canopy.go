package canopy

import "math"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// The zero value is the "no color" sentinel: as a tint it leaves the texture
// unchanged, as a flash it disables the effect.
type Color struct {
	R, G, B, A float64
}

var (
	// ColorNone is the zero color, used for "no tint" and "no flash".
	ColorNone = Color{}
	// ColorWhite is opaque white.
	ColorWhite = Color{1, 1, 1, 1}
	// ColorBlack is opaque black.
	ColorBlack = Color{0, 0, 0, 1}
	// ColorTransparent is fully transparent black, used to clear targets.
	ColorTransparent = Color{0, 0, 0, 0}
)

// Vec4 returns the color as a float32 4-vector, the layout uniforms expect.
func (c Color) Vec4() [4]float32 {
	return [4]float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}
}

// Clamped returns the color with every component clamped to [0, 1].
func (c Color) Clamped() Color {
	return Color{clamp01(c.R), clamp01(c.G), clamp01(c.B), clamp01(c.A)}
}

// Vec2 is a 2D vector used for positions, offsets, scales, and velocities.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v * s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Lerp linearly interpolates between v and o by t.
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return Vec2{lerp(v.X, o.X, t), lerp(v.Y, o.Y, t)}
}

// Size is an integer width and height in pixels.
type Size struct {
	W, H int
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Blend is a blend equation plus source and destination factors. The codes
// are OpenGL enum values and are handed to the Backend untouched; a backend
// that is not OpenGL maps them to its own blend state.
type Blend struct {
	Op, Src, Dst uint32
}

// Blend factors.
const (
	BlendZero                  uint32 = 0x0000
	BlendOne                   uint32 = 0x0001
	BlendSrcColor              uint32 = 0x0300
	BlendOneMinusSrcColor      uint32 = 0x0301
	BlendSrcAlpha              uint32 = 0x0302
	BlendOneMinusSrcAlpha      uint32 = 0x0303
	BlendDstAlpha              uint32 = 0x0304
	BlendOneMinusDstAlpha      uint32 = 0x0305
	BlendDstColor              uint32 = 0x0306
	BlendOneMinusDstColor      uint32 = 0x0307
	BlendSrcAlphaSaturate      uint32 = 0x0308
	BlendConstantColor         uint32 = 0x8001
	BlendOneMinusConstantColor uint32 = 0x8002
	BlendConstantAlpha         uint32 = 0x8003
	BlendOneMinusConstantAlpha uint32 = 0x8004
)

// Blend equations.
const (
	BlendOpAdd             uint32 = 0x8006
	BlendOpMin             uint32 = 0x8007
	BlendOpMax             uint32 = 0x8008
	BlendOpSubtract        uint32 = 0x800A
	BlendOpReverseSubtract uint32 = 0x800B
)

var (
	// BlendNormal is standard source-over alpha blending, the default.
	BlendNormal = Blend{BlendOpAdd, BlendSrcAlpha, BlendOneMinusSrcAlpha}
	// BlendAdditive adds the source on top of the destination.
	BlendAdditive = Blend{BlendOpAdd, BlendSrcAlpha, BlendOne}
	// BlendMultiply multiplies source and destination (only darkens).
	BlendMultiply = Blend{BlendOpAdd, BlendDstColor, BlendOneMinusSrcAlpha}
	// BlendScreen brightens: 1 - (1-src)*(1-dst).
	BlendScreen = Blend{BlendOpAdd, BlendOne, BlendOneMinusSrcColor}
	// BlendSubtract subtracts the source from the destination.
	BlendSubtract = Blend{BlendOpReverseSubtract, BlendSrcAlpha, BlendOne}
)

// DefaultBlend returns the blend every drawable starts with.
func DefaultBlend() Blend {
	return BlendNormal
}

// Flip selects texture mirroring for sprites.
type Flip uint8

const (
	FlipNone Flip = 0
	FlipX    Flip = 1 // mirror horizontally
	FlipY    Flip = 2 // mirror vertically
	FlipBoth      = FlipX | FlipY
)

// EarthGravity is Earth's gravitational acceleration in meters per second
// squared. Multiply by pixels-per-meter before handing it to an emitter.
const EarthGravity = 9.81

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// lerp linearly interpolates between a and b by t.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// wrapDegrees maps any finite angle into [0, 360).
func wrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}
