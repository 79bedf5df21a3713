// Package config loads canopy's TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/phanxgames/canopy"
)

// Config holds canopy configuration.
type Config struct {
	Window  WindowConfig  `toml:"window"`
	Render  RenderConfig  `toml:"render"`
	Camera  CameraConfig  `toml:"camera"`
	Search  SearchConfig  `toml:"search"`
	Preview PreviewConfig `toml:"preview"`
	Network NetworkConfig `toml:"network"`
}

// WindowConfig controls the viewer window.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// RenderConfig controls culling, labels, layout spacing and colors.
type RenderConfig struct {
	RenderDistance   float64  `toml:"render_distance"`
	MinPxRadius      float64  `toml:"min_px_radius"`
	LabelMinPxRadius float64  `toml:"label_min_px_radius"`
	LabelMinFontPx   float64  `toml:"label_min_font_px"`
	VerticalPadPx    float64  `toml:"vertical_pad_px"`
	Padding          float64  `toml:"padding"`
	Margin           float64  `toml:"margin"`
	Background       string   `toml:"background"`
	Palette          []string `toml:"palette"`
}

// CameraConfig controls camera motion.
type CameraConfig struct {
	AnimationMS int     `toml:"animation_ms"`
	WheelStep   float64 `toml:"wheel_step"`
	FitFraction float64 `toml:"fit_fraction"`
}

// SearchConfig selects the external search provider.
type SearchConfig struct {
	Provider string `toml:"provider"` // google, wikipedia, gbif, ncbi, col, inat
}

// PreviewConfig controls hover thumbnails.
type PreviewConfig struct {
	Enabled      bool   `toml:"enabled"`
	HoverDelayMS int    `toml:"hover_delay_ms"`
	Endpoint     string `toml:"endpoint"`
	MaxSize      int    `toml:"max_size"`
}

// NetworkConfig controls HTTP behavior.
type NetworkConfig struct {
	TimeoutS  int    `toml:"timeout_s"`
	Retries   int    `toml:"retries"`
	UserAgent string `toml:"user_agent"`
}

// Default returns the default configuration.
func Default() *Config {
	s := canopy.DefaultSettings()
	palette := make([]string, len(s.Palette))
	for i, c := range s.Palette {
		palette[i] = c.Hex()
	}
	return &Config{
		Window: WindowConfig{Title: "canopy", Width: 1280, Height: 800},
		Render: RenderConfig{
			RenderDistance:   s.RenderDistance,
			MinPxRadius:      s.MinPxRadius,
			LabelMinPxRadius: s.LabelMinPxRadius,
			LabelMinFontPx:   s.LabelMinFontPx,
			VerticalPadPx:    s.VerticalPadPx,
			Padding:          s.Padding,
			Margin:           s.Margin,
			Background:       s.Background.Hex(),
			Palette:          palette,
		},
		Camera: CameraConfig{
			AnimationMS: int(s.AnimationDuration / time.Millisecond),
			WheelStep:   s.WheelStep,
			FitFraction: s.FitFraction,
		},
		Search: SearchConfig{Provider: s.Provider},
		Preview: PreviewConfig{
			Enabled:      true,
			HoverDelayMS: int(s.HoverDelay / time.Millisecond),
			Endpoint:     "https://en.wikipedia.org",
			MaxSize:      256,
		},
		Network: NetworkConfig{TimeoutS: 15, Retries: 3, UserAgent: "canopy (https://github.com/phanxgames/canopy)"},
	}
}

// ConfigDir returns the canopy config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "canopy")
}

// DefaultPath returns the path of the default config file.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config at path over the defaults. An empty path reads the
// default location, where a missing file is not an error; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if _, err := cfg.Settings(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Settings maps the configuration onto canopy.Settings. Colors must be
// "#rgb" or "#rrggbb".
func (c *Config) Settings() (canopy.Settings, error) {
	s := canopy.DefaultSettings()
	r := c.Render
	s.RenderDistance = positive(r.RenderDistance, s.RenderDistance)
	s.MinPxRadius = nonNegative(r.MinPxRadius, s.MinPxRadius)
	s.LabelMinPxRadius = nonNegative(r.LabelMinPxRadius, s.LabelMinPxRadius)
	s.LabelMinFontPx = nonNegative(r.LabelMinFontPx, s.LabelMinFontPx)
	s.VerticalPadPx = nonNegative(r.VerticalPadPx, s.VerticalPadPx)
	s.Padding = nonNegative(r.Padding, s.Padding)
	s.Margin = nonNegative(r.Margin, s.Margin)

	if r.Background != "" {
		bg, err := canopy.ColorFromHex(r.Background)
		if err != nil {
			return s, fmt.Errorf("render.background: %w", err)
		}
		s.Background = bg
	}
	if len(r.Palette) > 0 {
		palette := make([]canopy.Color, 0, len(r.Palette))
		for i, h := range r.Palette {
			col, err := canopy.ColorFromHex(h)
			if err != nil {
				return s, fmt.Errorf("render.palette[%d]: %w", i, err)
			}
			palette = append(palette, col)
		}
		s.Palette = palette
	}

	if c.Camera.AnimationMS >= 0 {
		s.AnimationDuration = time.Duration(c.Camera.AnimationMS) * time.Millisecond
	}
	s.WheelStep = positive(c.Camera.WheelStep, s.WheelStep)
	s.FitFraction = positive(c.Camera.FitFraction, s.FitFraction)
	if c.Search.Provider != "" {
		s.Provider = c.Search.Provider
	}
	if c.Preview.HoverDelayMS >= 0 {
		s.HoverDelay = time.Duration(c.Preview.HoverDelayMS) * time.Millisecond
	}
	return s, nil
}

// Timeout returns the HTTP timeout.
func (c *Config) Timeout() time.Duration {
	if c.Network.TimeoutS <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Network.TimeoutS) * time.Second
}

func positive(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func nonNegative(v, def float64) float64 {
	if v >= 0 {
		return v
	}
	return def
}
