// Package config loads settings for the example programs: window, logging,
// and scene options. Priority is defaults < YAML file < command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all example settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Logging LoggingConfig `yaml:"logging"`
	Scene   SceneConfig   `yaml:"scene"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	TPS        int    `yaml:"tps"`
	ShowFPS    bool   `yaml:"show_fps"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// SceneConfig holds options the examples read when building their scene.
type SceneConfig struct {
	// Emitter is the path of a YAML emitter preset. Empty uses the
	// example's built-in preset.
	Emitter string `yaml:"emitter"`
	// Debug enables per-frame stats logging.
	Debug bool `yaml:"debug"`
	// ScreenshotDir is where screenshots are saved.
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "canopy",
			Width:  800,
			Height: 600,
			VSync:  true,
			TPS:    60,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Scene: SceneConfig{
			ScreenshotDir: "screenshots",
		},
	}
}

// Load builds the configuration from defaults, the file named by -config if
// any, and the remaining flags in args (typically os.Args[1:]).
func Load(name string, args []string) (*Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		path    = fs.String("config", "", "path to config file")
		debug   = fs.Bool("debug", false, "enable debug logging and frame stats")
		width   = fs.Int("width", 0, "window width")
		height  = fs.Int("height", 0, "window height")
		full    = fs.Bool("fullscreen", false, "run fullscreen")
		fps     = fs.Bool("fps", false, "show the FPS counter")
		emitter = fs.String("emitter", "", "emitter preset YAML file")
		level   = fs.String("log-level", "", "log level: debug, info, warn, error")
		logFile = fs.String("log-file", "", "rotated log file path")
	)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := Default()
	if *path != "" {
		if err := LoadFile(cfg, *path); err != nil {
			return nil, err
		}
	}

	if *debug {
		cfg.Scene.Debug = true
		cfg.Logging.Level = "debug"
		cfg.Window.ShowFPS = true
	}
	if *width > 0 {
		cfg.Window.Width = *width
	}
	if *height > 0 {
		cfg.Window.Height = *height
	}
	if *full {
		cfg.Window.Fullscreen = true
	}
	if *fps {
		cfg.Window.ShowFPS = true
	}
	if *emitter != "" {
		cfg.Scene.Emitter = *emitter
	}
	if *level != "" {
		cfg.Logging.Level = *level
	}
	if *logFile != "" {
		cfg.Logging.LogFile = *logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile merges the YAML file at path into cfg. Keys missing from the file
// keep their current values.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// Validate reports settings no example can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Window.TPS < 0 {
		errs = append(errs, fmt.Errorf("tps %d must not be negative", c.Window.TPS))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
