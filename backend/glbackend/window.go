package glbackend

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/phanxgames/canopy"
)

func init() {
	// OpenGL calls must be made from the main thread
	runtime.LockOSThread()
}

// WindowConfig holds window configuration.
type WindowConfig struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	// TPS is the fixed update rate. Zero means 60.
	TPS        int
	ClearColor canopy.Color
	Debug      bool
	Logger     *zap.Logger
}

// Window is an SDL2 window with a current OpenGL 4.1 core context and the
// canopy render context drawing into it.
type Window struct {
	cfg       WindowConfig
	log       *zap.Logger
	sdlWindow *sdl.Window
	glContext sdl.GLContext

	Backend  *Backend
	Graphics *canopy.Graphics
	Root     *canopy.Batch

	// OnUpdate, if set, runs once per tick before drawables are updated.
	OnUpdate func(delta float64) error
	// OnEvent, if set, receives every SDL event except quit.
	OnEvent func(e sdl.Event)
}

// NewWindow opens a window, creates the GL context, and builds the backend,
// render context, and root batch.
func NewWindow(cfg WindowConfig) (*Window, error) {
	if cfg.Width <= 0 {
		cfg.Width = 640
	}
	if cfg.Height <= 0 {
		cfg.Height = 480
	}
	if cfg.TPS <= 0 {
		cfg.TPS = 60
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	w := &Window{cfg: cfg, log: log}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}

	// Set OpenGL attributes before creating the window
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_SHOWN)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN
	}

	var err error
	w.sdlWindow, err = sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width), int32(cfg.Height), flags)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	w.glContext, err = w.sdlWindow.GLCreateContext()
	if err != nil {
		w.sdlWindow.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}
	if err := gl.Init(); err != nil {
		w.Close()
		return nil, fmt.Errorf("gl.Init failed: %w", err)
	}

	interval := 0
	if cfg.VSync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		log.Warn("failed to set swap interval", zap.Error(err))
	}

	dw, dh := w.sdlWindow.GLGetDrawableSize()
	w.Backend, err = New(log, int(dw), int(dh))
	if err != nil {
		w.Close()
		return nil, err
	}
	w.Backend.SetPixelScale(float64(dw) / float64(cfg.Width))
	w.Graphics, err = canopy.NewGraphics(w.Backend, cfg.Width, cfg.Height)
	if err != nil {
		w.Close()
		return nil, err
	}
	w.Graphics.SetLogger(log)
	w.Graphics.SetDebugMode(cfg.Debug)
	w.Root = canopy.NewBatch()

	log.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Int32("drawable_width", dw),
		zap.Int32("drawable_height", dh),
		zap.Bool("vsync", cfg.VSync),
	)
	return w, nil
}

// Run drives the fixed-step loop until the window is closed or an update
// fails. Rendering interpolates between ticks with the leftover fraction.
func (w *Window) Run() error {
	step := time.Second / time.Duration(w.cfg.TPS)
	dt := step.Seconds()
	last := time.Now()
	var acc time.Duration

	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			if _, ok := event.(*sdl.QuitEvent); ok {
				return nil
			}
			if w.OnEvent != nil {
				w.OnEvent(event)
			}
		}

		now := time.Now()
		acc += now.Sub(last)
		last = now
		// Cap catch-up so a long stall doesn't spiral.
		acc = min(acc, 5*step)

		for acc >= step {
			if w.OnUpdate != nil {
				if err := w.OnUpdate(dt); err != nil {
					return err
				}
			}
			if err := canopy.UpdateAll(w.Root, dt); err != nil {
				return err
			}
			acc -= step
		}

		alpha := float64(acc) / float64(step)
		if err := w.Graphics.Frame(w.Root, alpha, w.cfg.ClearColor); err != nil {
			w.log.Error("frame failed", zap.Error(err))
		}
		w.sdlWindow.GLSwap()
	}
}

// Close destroys the backend, the GL context, and the window.
func (w *Window) Close() {
	if w.Backend != nil {
		w.Backend.Close()
	}
	if w.glContext != nil {
		sdl.GLDeleteContext(w.glContext)
	}
	if w.sdlWindow != nil {
		w.sdlWindow.Destroy()
	}
	sdl.Quit()
}
