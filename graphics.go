package canopy

import (
	"fmt"
	"image"
	"image/draw"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// MaxViewportDepth bounds how deeply viewports may nest while rendering. A
// deeper stack means a viewport is reachable from its own batch.
const MaxViewportDepth = 64

// FrameStats holds per-frame draw metrics, reset at the start of every
// Frame. Duration is only measured in debug mode.
type FrameStats struct {
	DrawCalls int
	Instances int
	Viewports int
	MaxDepth  int
	Duration  time.Duration
}

// Graphics is the render context drawables are created against: the
// backend, the projection stack, the built-in programs, and the frame
// bookkeeping. There is no global instance; the host creates one and passes
// it to constructors.
type Graphics struct {
	backend  Backend
	log      *zap.Logger
	width    int
	height   int
	programs map[ProgramKind]Program

	projections []mgl32.Mat4
	depth       int
	ids         uint32

	debug bool
	stats FrameStats
}

// NewGraphics returns a render context drawing to a w x h screen through
// backend.
func NewGraphics(backend Backend, w, h int) (*Graphics, error) {
	if backend == nil {
		return nil, fmt.Errorf("canopy: new graphics: nil backend: %w", ErrInvalidArgument)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("canopy: new graphics: screen %dx%d: %w", w, h, ErrInvalidArgument)
	}
	return &Graphics{
		backend:  backend,
		log:      zap.NewNop(),
		width:    w,
		height:   h,
		programs: make(map[ProgramKind]Program, 2),
	}, nil
}

// Backend returns the backend drawables render through.
func (g *Graphics) Backend() Backend { return g.backend }

// SetLogger replaces the logger. nil restores the no-op logger.
func (g *Graphics) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	g.log = l
}

// Logger returns the current logger.
func (g *Graphics) Logger() *zap.Logger { return g.log }

// SetDebugMode enables per-frame stats, logged at debug level after every
// Frame.
func (g *Graphics) SetDebugMode(on bool) { g.debug = on }

// Stats returns the metrics of the last frame.
func (g *Graphics) Stats() FrameStats { return g.stats }

// Size returns the screen size.
func (g *Graphics) Size() (w, h int) { return g.width, g.height }

// Resize changes the screen size used by Frame.
func (g *Graphics) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("canopy: resize %dx%d: %w", w, h, ErrInvalidArgument)
	}
	g.width, g.height = w, h
	return nil
}

// Frame renders root into the screen, cleared to clear first. alpha is
// passed through to every drawable.
func (g *Graphics) Frame(root *Batch, alpha float64, clear Color) error {
	var start time.Time
	if g.debug {
		start = time.Now()
	}
	g.stats = FrameStats{}

	if err := g.backend.PushTarget(0, clear, Rect{0, 0, float64(g.width), float64(g.height)}); err != nil {
		return fmt.Errorf("canopy: frame: %w", err)
	}
	g.pushProjection(screenOrtho(g.width, g.height))
	err := root.Render(alpha)
	g.popProjection()
	if perr := g.backend.PopTarget(); perr != nil && err == nil {
		err = fmt.Errorf("canopy: frame: %w", perr)
	}

	if g.debug {
		g.stats.Duration = time.Since(start)
		g.logStats()
	}
	return err
}

// logStats writes the last frame's metrics at debug level.
func (g *Graphics) logStats() {
	g.log.Debug("frame",
		zap.Duration("duration", g.stats.Duration),
		zap.Int("draw_calls", g.stats.DrawCalls),
		zap.Int("instances", g.stats.Instances),
		zap.Int("viewports", g.stats.Viewports),
		zap.Int("max_depth", g.stats.MaxDepth),
	)
}

// screenOrtho maps pixel coordinates with a top-left origin to clip space.
func screenOrtho(w, h int) mgl32.Mat4 {
	return mgl32.Ortho(0, float32(w), float32(h), 0, -1, 1)
}

func (g *Graphics) pushProjection(m mgl32.Mat4) {
	g.projections = append(g.projections, m)
}

func (g *Graphics) popProjection() {
	g.projections = g.projections[:len(g.projections)-1]
}

// projection returns the current projection. Outside Frame it is the screen
// projection.
func (g *Graphics) projection() mgl32.Mat4 {
	if n := len(g.projections); n > 0 {
		return g.projections[n-1]
	}
	return screenOrtho(g.width, g.height)
}

// enterViewport records one more level of viewport nesting.
func (g *Graphics) enterViewport() error {
	if g.depth >= MaxViewportDepth {
		g.log.Error("viewport nesting limit reached", zap.Int("limit", MaxViewportDepth))
		return fmt.Errorf("canopy: render viewport at depth %d: %w", g.depth, ErrViewportDepth)
	}
	g.depth++
	g.stats.Viewports++
	g.stats.MaxDepth = max(g.stats.MaxDepth, g.depth)
	return nil
}

func (g *Graphics) leaveViewport() { g.depth-- }

// program returns the backend program for kind, fetching it on first use.
func (g *Graphics) program(kind ProgramKind) (Program, error) {
	if p, ok := g.programs[kind]; ok {
		return p, nil
	}
	p, err := g.backend.Program(kind)
	if err != nil {
		return 0, fmt.Errorf("canopy: %s program: %w", kind, err)
	}
	g.log.Debug("program ready", zap.Stringer("kind", kind), zap.Uint32("handle", uint32(p)))
	g.programs[kind] = p
	return p, nil
}

// bindVisual sets the sprite program's uniforms from v.
func (g *Graphics) bindVisual(v *Visual, model mgl32.Mat4) {
	b := g.backend
	b.SetUniformMat4(UniformProjection, g.projection())
	b.SetUniformMat4(UniformModel, model)
	b.SetUniformVec4(UniformColor, v.Color.Vec4())
	b.SetUniformVec4(UniformTone, v.Tone.Vec4())
	b.SetUniformVec4(UniformFlash, v.flashColor.Vec4())
	b.SetUniformFloat(UniformHue, float32(v.Hue))
	b.SetUniformFloat(UniformOpacity, float32(v.opacity))
}

func (g *Graphics) nextID() uint32 {
	g.ids++
	return g.ids
}

// Image is a texture that sprites and planes sample from. Images are owned
// by the caller and may be shared between drawables.
type Image struct {
	gfx      *Graphics
	tex      Texture
	w, h     int
	disposed bool
}

// NewImage creates a w x h image from premultiplied RGBA pixels. A nil pix
// creates a transparent image.
func (g *Graphics) NewImage(w, h int, pix []byte) (*Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("canopy: new image %dx%d: %w", w, h, ErrInvalidArgument)
	}
	if pix != nil && len(pix) != w*h*4 {
		return nil, fmt.Errorf("canopy: new image: %d bytes for %dx%d: %w", len(pix), w, h, ErrInvalidArgument)
	}
	tex, err := g.backend.NewTexture(w, h, pix)
	if err != nil {
		return nil, fmt.Errorf("canopy: new image: %w", err)
	}
	return &Image{gfx: g, tex: tex, w: w, h: h}, nil
}

// LoadImage uploads an already decoded image.
func (g *Graphics) LoadImage(src image.Image) (*Image, error) {
	if src == nil {
		return nil, fmt.Errorf("canopy: load image <nil>: %w", ErrInvalidArgument)
	}
	b := src.Bounds()
	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	}
	return g.NewImage(b.Dx(), b.Dy(), rgba.Pix)
}

// Size returns the image size in pixels.
func (img *Image) Size() (w, h int) { return img.w, img.h }

// Texture returns the backend texture handle.
func (img *Image) Texture() Texture { return img.tex }

// Dispose releases the texture. Drawables still using the image sample the
// backend's white texture afterwards.
func (img *Image) Dispose() {
	if img.disposed {
		return
	}
	img.gfx.backend.DeleteTexture(img.tex)
	img.tex = 0
	img.disposed = true
}

// textureOf returns img's texture, or 0 for nil.
func textureOf(img *Image) Texture {
	if img == nil {
		return 0
	}
	return img.tex
}
