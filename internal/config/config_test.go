package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/phanxgames/canopy"
)

func TestDefaultMatchesSettings(t *testing.T) {
	s, err := Default().Settings()
	if err != nil {
		t.Fatal(err)
	}
	def := canopy.DefaultSettings()
	if s.RenderDistance != def.RenderDistance || s.Margin != def.Margin || s.AnimationDuration != def.AnimationDuration {
		t.Errorf("Settings = %+v", s)
	}
	if s.Background.Hex() != def.Background.Hex() || len(s.Palette) != len(def.Palette) {
		t.Error("colors did not survive the hex round trip")
	}
	if s.HoverDelay != def.HoverDelay || s.Provider != "google" {
		t.Errorf("HoverDelay = %v, Provider = %q", s.HoverDelay, s.Provider)
	}
}

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if got, want := DefaultPath(), filepath.Join(dir, "canopy", "config.toml"); got != want {
		t.Errorf("DefaultPath = %q, want %q", got, want)
	}
}

func TestLoadMissingDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Window.Width != 1280 {
		t.Errorf("Width = %d, want default 1280", cfg.Window.Width)
	}
}

func TestLoadMissingExplicit(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("explicit missing path should fail")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	data := `
[render]
padding = 5
background = "#123"
palette = ["#ff0000", "#00ff00"]

[camera]
animation_ms = 0

[search]
provider = "gbif"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Title != "canopy" {
		t.Errorf("untouched section lost its default: %q", cfg.Window.Title)
	}
	s, err := cfg.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if s.Padding != 5 || s.Background.Hex() != "#112233" || len(s.Palette) != 2 {
		t.Errorf("Settings = %+v", s)
	}
	if s.AnimationDuration != 0 {
		t.Errorf("AnimationDuration = %v, want 0", s.AnimationDuration)
	}
	if s.Provider != "gbif" {
		t.Errorf("Provider = %q", s.Provider)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, data, want string
	}{
		{"bad toml", "[render\n", "parse config"},
		{"bad background", "[render]\nbackground = \"navy\"\n", "render.background"},
		{"bad palette", "[render]\npalette = [\"#fff\", \"oops\"]\n", "render.palette[1]"},
	}
	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "c.toml")
		if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: error = %v, want %q", tt.name, err, tt.want)
		}
	}
}

func TestSettingsIgnoresNonsense(t *testing.T) {
	cfg := Default()
	cfg.Render.RenderDistance = -1
	cfg.Render.Margin = -3
	cfg.Camera.WheelStep = 0
	cfg.Camera.AnimationMS = -5
	s, err := cfg.Settings()
	if err != nil {
		t.Fatal(err)
	}
	def := canopy.DefaultSettings()
	if s.RenderDistance != def.RenderDistance || s.Margin != def.Margin || s.WheelStep != def.WheelStep {
		t.Errorf("Settings = %+v", s)
	}
	if s.AnimationDuration != def.AnimationDuration {
		t.Errorf("AnimationDuration = %v", s.AnimationDuration)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Window.Width = 640
	cfg.Network.Retries = 7
	if err := Save(cfg, path); err != nil {
		t.Fatal(err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Window.Width != 640 || back.Network.Retries != 7 {
		t.Errorf("round trip = %+v", back)
	}
}

func TestTimeout(t *testing.T) {
	cfg := Default()
	if cfg.Timeout() != 15*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout())
	}
	cfg.Network.TimeoutS = 0
	if cfg.Timeout() != 15*time.Second {
		t.Errorf("zero Timeout = %v", cfg.Timeout())
	}
	cfg.Network.TimeoutS = 3
	if cfg.Timeout() != 3*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout())
	}
}
