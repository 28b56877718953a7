package ebitenbackend

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"go.uber.org/zap"

	"github.com/phanxgames/canopy"
)

// RunConfig holds optional settings for Run.
type RunConfig struct {
	// Title sets the window title. Ignored on platforms without a title bar.
	Title string
	// Width and Height set the window size in device-independent pixels.
	// If zero, a default of 640x480 is used.
	Width, Height int
	// TPS sets the update rate. If zero, 60 is used.
	TPS int
	// ClearColor is what the screen is cleared to every frame.
	ClearColor canopy.Color
	// ShowFPS draws the actual FPS and TPS in the top-left corner.
	ShowFPS bool
	// Debug enables per-frame stats logging.
	Debug bool
	// ScreenshotDir is where Game.Screenshot writes PNG files. If empty,
	// "screenshots" is used.
	ScreenshotDir string
	// Logger receives backend and frame logs. nil logs nothing.
	Logger *zap.Logger
}

// Game adapts a canopy scene to ebiten.Game. Run creates one; it is exported
// for hosts that drive Ebitengine themselves.
type Game struct {
	Backend  *Backend
	Graphics *canopy.Graphics
	Root     *canopy.Batch

	// OnUpdate, if set, runs at the start of every tick before drawables
	// are updated.
	OnUpdate func(delta float64) error

	clear   canopy.Color
	showFPS bool
	width   int
	height  int
	shotDir string
	shots   []string
}

// NewGame builds the backend, render context, and root batch for a w x h
// screen.
func NewGame(w, h int, log *zap.Logger) (*Game, error) {
	b := New(log)
	gfx, err := canopy.NewGraphics(b, w, h)
	if err != nil {
		return nil, err
	}
	if log != nil {
		gfx.SetLogger(log)
	}
	return &Game{
		Backend:  b,
		Graphics: gfx,
		Root:     canopy.NewBatch(),
		clear:    canopy.ColorBlack,
		shotDir:  "screenshots",
		width:    w,
		height:   h,
	}, nil
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	dt := 1.0 / float64(ebiten.TPS())
	if g.OnUpdate != nil {
		if err := g.OnUpdate(dt); err != nil {
			return err
		}
	}
	return canopy.UpdateAll(g.Root, dt)
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.Backend.SetScreen(screen)
	if err := g.Graphics.Frame(g.Root, 1, g.clear); err != nil {
		g.Graphics.Logger().Error("frame failed", zap.Error(err))
	}
	g.flushScreenshots(screen)
	if g.showFPS {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
}

// Layout implements ebiten.Game.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// Run opens a window and runs the scene until the window closes or an update
// returns an error. setup is called once with the render context and root
// batch before the loop starts.
func Run(cfg RunConfig, setup func(g *Game) error) error {
	w, h := cfg.Width, cfg.Height
	if w <= 0 {
		w = 640
	}
	if h <= 0 {
		h = 480
	}
	g, err := NewGame(w, h, cfg.Logger)
	if err != nil {
		return err
	}
	g.clear = cfg.ClearColor
	g.showFPS = cfg.ShowFPS
	if cfg.ScreenshotDir != "" {
		g.shotDir = cfg.ScreenshotDir
	}
	g.Graphics.SetDebugMode(cfg.Debug)
	if setup != nil {
		if err := setup(g); err != nil {
			return fmt.Errorf("ebitenbackend: setup: %w", err)
		}
	}

	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	ebiten.SetWindowSize(w, h)
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}
	return ebiten.RunGame(g)
}
