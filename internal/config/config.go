package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// FileName is the config file looked up in the project root.
const FileName = "arbor.toml"

// Config is the editor and engine configuration, read from arbor.toml.
type Config struct {
	Window  WindowConfig  `toml:"window"`
	Render  RenderConfig  `toml:"render"`
	Physics PhysicsConfig `toml:"physics"`
	Editor  EditorConfig  `toml:"editor"`
	Logging LoggingConfig `toml:"logging"`
}

// WindowConfig sizes and titles the editor window.
type WindowConfig struct {
	Title      string     `toml:"title"`
	Width      int        `toml:"width"`
	Height     int        `toml:"height"`
	Resizable  bool       `toml:"resizable"`
	Background [4]float64 `toml:"background"` // RGBA, 0-1
}

// RenderConfig tunes the sprite batcher.
type RenderConfig struct {
	MaxBatchSprites int  `toml:"max_batch_sprites"`
	TextureSlots    int  `toml:"texture_slots"`
	ShowStats       bool `toml:"show_stats"`
	Debug           bool `toml:"debug"` // verify batch invariants, log per-frame stats
}

// PhysicsConfig sets up the box2d world.
type PhysicsConfig struct {
	GravityX           float64 `toml:"gravity_x"`
	GravityY           float64 `toml:"gravity_y"` // positive is down
	TimeStep           float64 `toml:"time_step"` // seconds
	VelocityIterations int     `toml:"velocity_iterations"`
	PositionIterations int     `toml:"position_iterations"`
	MaxSubSteps        int     `toml:"max_sub_steps"` // 0 = unbounded
}

// EditorConfig controls the editor surface and the undo depth.
type EditorConfig struct {
	Enabled      bool   `toml:"enabled"`
	HistoryLimit int    `toml:"history_limit"`
	StartScene   string `toml:"start_scene"`
}

// LoggingConfig selects the log level and format, and the optional rotating file.
type LoggingConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"` // "json" or "console"
	File       string `toml:"file"`   // empty disables the rotating file
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	return cfg, err
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Render.MaxBatchSprites <= 0 {
		return fmt.Errorf("render.max_batch_sprites must be positive, got %d", c.Render.MaxBatchSprites)
	}
	if c.Render.TextureSlots <= 0 {
		return fmt.Errorf("render.texture_slots must be positive, got %d", c.Render.TextureSlots)
	}
	if c.Physics.TimeStep <= 0 {
		return fmt.Errorf("physics.time_step must be positive, got %g", c.Physics.TimeStep)
	}
	return nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "arbor",
			Width:      1280,
			Height:     720,
			Resizable:  true,
			Background: [4]float64{0.1, 0.1, 0.12, 1},
		},
		Render: RenderConfig{
			MaxBatchSprites: 1000,
			TextureSlots:    8,
		},
		Physics: PhysicsConfig{
			GravityY:           9.8,
			TimeStep:           1.0 / 60,
			VelocityIterations: 16,
			PositionIterations: 6,
		},
		Editor: EditorConfig{
			Enabled:      true,
			HistoryLimit: 256,
			StartScene:   "Main",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}
