// Package config loads the host configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"GopherTestbed/internal/settings"

	"gopkg.in/yaml.v3"
)

// Config is the host configuration.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Log       LogConfig       `yaml:"log"`
	Renderer  RendererConfig  `yaml:"renderer"`
	Assets    AssetsConfig    `yaml:"assets"`
	Presets   PresetsConfig   `yaml:"presets"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	VSync  bool   `yaml:"vsync"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

type RendererConfig struct {
	Mode settings.RendererMode `yaml:"mode"` // opengl, webgpu
}

type AssetsConfig struct {
	Root        string        `yaml:"root"`
	Index       string        `yaml:"index"`
	Collection  string        `yaml:"collection"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

type PresetsConfig struct {
	Path  string `yaml:"path"` // empty keeps presets in memory
	Watch bool   `yaml:"watch"`
}

type BenchmarkConfig struct {
	Duration  time.Duration `yaml:"duration"`
	ExportDir string        `yaml:"export_dir"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "Gopher Testbed",
			VSync:  true,
		},
		Log:      LogConfig{Level: "info"},
		Renderer: RendererConfig{Mode: settings.RendererOpenGL},
		Assets: AssetsConfig{
			Root:        ".",
			Index:       "/assets/collections-index.json",
			Collection:  "procedural",
			Concurrency: 4,
			Timeout:     30 * time.Second,
		},
		Presets: PresetsConfig{
			Path:  "presets.json",
			Watch: true,
		},
		Benchmark: BenchmarkConfig{
			Duration:  12 * time.Second,
			ExportDir: ".",
		},
	}
}

// Load reads path over DefaultConfig. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes cfg to path.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	d := DefaultConfig()
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		c.Window.Width, c.Window.Height = d.Window.Width, d.Window.Height
	}
	if !c.Renderer.Mode.Valid() {
		c.Renderer.Mode = d.Renderer.Mode
	}
	if c.Assets.Concurrency <= 0 {
		c.Assets.Concurrency = d.Assets.Concurrency
	}
	if c.Assets.Timeout <= 0 {
		c.Assets.Timeout = d.Assets.Timeout
	}
	if c.Benchmark.Duration <= 0 {
		c.Benchmark.Duration = d.Benchmark.Duration
	}
}
