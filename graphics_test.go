package canopy

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewGraphicsErrors(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
		w, h    int
	}{
		{"nil backend", nil, 10, 10},
		{"zero width", newRecorder(), 0, 10},
		{"negative height", newRecorder(), 10, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGraphics(tt.backend, tt.w, tt.h); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestFrameTargetsScreen(t *testing.T) {
	g, rec := newTestGraphics(t)
	root := NewBatch()
	newTestSprite(t, g, root, 0)
	clear := Color{0.1, 0.2, 0.3, 1}

	if err := g.Frame(root, 1, clear); err != nil {
		t.Fatal(err)
	}
	if len(rec.pushes) != 1 || rec.pushes[0] != 0 {
		t.Fatalf("pushes = %v, want the screen only", rec.pushes)
	}
	if rec.clears[0] != clear || rec.areas[0] != (Rect{0, 0, 320, 240}) {
		t.Errorf("clear %v area %v", rec.clears[0], rec.areas[0])
	}
	if len(rec.stack) != 0 {
		t.Error("screen target not popped")
	}
	if rec.draws[0].projection != screenOrtho(320, 240) {
		t.Error("draw did not use the screen projection")
	}
	x, y := apply(screenOrtho(320, 240), 320, 240)
	assertNear32(t, "clip x", x, 1)
	assertNear32(t, "clip y", y, -1)
}

func TestFrameResetsStats(t *testing.T) {
	g, _ := newTestGraphics(t)
	root := NewBatch()
	a := newTestSprite(t, g, root, 0)
	newTestSprite(t, g, root, 1)

	if err := g.Frame(root, 1, ColorBlack); err != nil {
		t.Fatal(err)
	}
	if st := g.Stats(); st.DrawCalls != 2 || st.Viewports != 0 || st.Duration != 0 {
		t.Errorf("first frame stats = %+v", st)
	}

	a.Dispose()
	if err := g.Frame(root, 1, ColorBlack); err != nil {
		t.Fatal(err)
	}
	if st := g.Stats(); st.DrawCalls != 1 {
		t.Errorf("second frame draw calls = %d, want 1", st.DrawCalls)
	}
}

func TestFrameReportsDrawErrors(t *testing.T) {
	g, rec := newTestGraphics(t)
	root := NewBatch()
	newTestSprite(t, g, root, 0)
	rec.failDraw = errDrawFailed

	if err := g.Frame(root, 1, ColorBlack); !errors.Is(err, errDrawFailed) {
		t.Errorf("Frame = %v, want the draw error", err)
	}
	if len(rec.stack) != 0 {
		t.Error("screen target not popped after a failed draw")
	}
}

func TestProgramFetchedOnce(t *testing.T) {
	g, rec := newTestGraphics(t)
	root := NewBatch()
	for i := 0; i < 3; i++ {
		newTestSprite(t, g, root, i)
	}
	for i := 0; i < 2; i++ {
		if err := g.Frame(root, 1, ColorBlack); err != nil {
			t.Fatal(err)
		}
	}
	if n := rec.programCalls[ProgramSprite]; n != 1 {
		t.Errorf("sprite program requested %d times, want 1", n)
	}
	if n := rec.programCalls[ProgramParticle]; n != 0 {
		t.Errorf("particle program requested %d times without emitters", n)
	}
}

func TestDebugModeLogsFrames(t *testing.T) {
	g, _ := newTestGraphics(t)
	core, logs := observer.New(zapcore.DebugLevel)
	g.SetLogger(zap.New(core))
	root := NewBatch()
	newTestSprite(t, g, root, 0)

	if err := g.Frame(root, 1, ColorBlack); err != nil {
		t.Fatal(err)
	}
	if n := logs.FilterMessage("frame").Len(); n != 0 {
		t.Errorf("%d frame entries logged with debug mode off", n)
	}

	g.SetDebugMode(true)
	if err := g.Frame(root, 1, ColorBlack); err != nil {
		t.Fatal(err)
	}
	frames := logs.FilterMessage("frame").All()
	if len(frames) != 1 {
		t.Fatalf("frame entries = %d, want 1", len(frames))
	}
	fields := frames[0].ContextMap()
	if fields["draw_calls"] != int64(1) {
		t.Errorf("draw_calls = %v, want 1", fields["draw_calls"])
	}
	if _, ok := fields["duration"]; !ok {
		t.Error("frame entry has no duration")
	}
}

func TestSetLoggerNil(t *testing.T) {
	g, _ := newTestGraphics(t)
	g.SetLogger(nil)
	if g.Logger() == nil {
		t.Fatal("SetLogger(nil) left a nil logger")
	}
	g.Logger().Info("discarded")
}

func TestResize(t *testing.T) {
	g, rec := newTestGraphics(t)
	if err := g.Resize(0, 10); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Resize(0, 10) = %v, want ErrInvalidArgument", err)
	}
	if err := g.Resize(100, 50); err != nil {
		t.Fatal(err)
	}
	if w, h := g.Size(); w != 100 || h != 50 {
		t.Errorf("Size = %d, %d", w, h)
	}
	if err := g.Frame(NewBatch(), 1, ColorBlack); err != nil {
		t.Fatal(err)
	}
	if rec.areas[0] != (Rect{0, 0, 100, 50}) {
		t.Errorf("frame area = %v after resize", rec.areas[0])
	}
}

func TestNewImage(t *testing.T) {
	g, rec := newTestGraphics(t)

	img, err := g.NewImage(2, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w, h := img.Size(); w != 2 || h != 3 {
		t.Errorf("Size = %d, %d", w, h)
	}
	if len(rec.textures[img.Texture()]) != 2*3*4 {
		t.Error("texture not allocated")
	}

	if _, err := g.NewImage(2, 2, make([]byte, 15)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("short pixels = %v, want ErrInvalidArgument", err)
	}
	if _, err := g.NewImage(0, 2, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero width = %v, want ErrInvalidArgument", err)
	}

	tex := img.Texture()
	img.Dispose()
	img.Dispose()
	if _, ok := rec.textures[tex]; ok {
		t.Error("texture not deleted")
	}
	if img.Texture() != 0 {
		t.Error("disposed image should report texture 0")
	}
}

func TestLoadImagePremultiplies(t *testing.T) {
	g, rec := newTestGraphics(t)
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 128})
	src.SetNRGBA(1, 0, color.NRGBA{0, 255, 0, 255})

	img, err := g.LoadImage(src)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{128, 0, 0, 128, 0, 255, 0, 255}
	got := rec.textures[img.Texture()]
	if string(got) != string(want) {
		t.Errorf("pixels = %v, want %v", got, want)
	}

	sub := image.NewRGBA(image.Rect(0, 0, 4, 4)).SubImage(image.Rect(1, 1, 3, 4))
	img, err = g.LoadImage(sub)
	if err != nil {
		t.Fatal(err)
	}
	if w, h := img.Size(); w != 2 || h != 3 {
		t.Errorf("sub-image size = %d, %d", w, h)
	}

	if _, err := g.LoadImage(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil image = %v, want ErrInvalidArgument", err)
	}
}
