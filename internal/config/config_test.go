package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}
	if cfg.Graphics.MaxPixelRatio != 2 {
		t.Errorf("expected max pixel ratio 2, got %v", cfg.Graphics.MaxPixelRatio)
	}

	if cfg.Viewer.ContainerID != "threejs-container" {
		t.Errorf("expected container id threejs-container, got %s", cfg.Viewer.ContainerID)
	}
	if len(cfg.Viewer.Models) != 4 {
		t.Fatalf("expected 4 model paths, got %d", len(cfg.Viewer.Models))
	}
	if cfg.Viewer.Models[2] != "./models/model.glb" {
		t.Errorf("expected index 2 to be ./models/model.glb, got %s", cfg.Viewer.Models[2])
	}

	if cfg.Camera.FOV != 75 || cfg.Camera.Near != 0.1 || cfg.Camera.Far != 1000 {
		t.Errorf("unexpected projection defaults: %+v", cfg.Camera)
	}
	if cfg.Camera.Damping != 0.05 {
		t.Errorf("expected damping 0.05, got %v", cfg.Camera.Damping)
	}
	if cfg.Camera.Position != [3]float32{50, 80, 80} {
		t.Errorf("expected camera position (50,80,80), got %v", cfg.Camera.Position)
	}

	if cfg.PostFX.BloomStrength != 0.5 || cfg.PostFX.BloomRadius != 0.4 || cfg.PostFX.BloomThreshold != 0.85 {
		t.Errorf("unexpected bloom defaults: %+v", cfg.PostFX)
	}
	if cfg.PostFX.FilmNoise != 0.35 || cfg.PostFX.FilmScanlines != 0.025 || cfg.PostFX.FilmScanlineCount != 648 {
		t.Errorf("unexpected film defaults: %+v", cfg.PostFX)
	}
	if cfg.PostFX.FilmGrayscale {
		t.Error("expected film grain to be colour")
	}

	if cfg.Loader.Timeout != 30*time.Second {
		t.Errorf("expected loader timeout 30s, got %v", cfg.Loader.Timeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false
  fps_limit: 144

viewer:
  container_id: "stage"
  models:
    - a.glb
    - b.glb

camera:
  fov: 60
  damping: 0.1

postfx:
  bloom_strength: 1.5
  film_grayscale: true

loader:
  timeout: 5s

logging:
  level: "debug"
  log_file: "viewer.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 || cfg.Graphics.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if cfg.Graphics.VSync {
		t.Error("expected vsync to be false")
	}
	if cfg.Graphics.FPSLimit != 144 {
		t.Errorf("expected fps limit 144, got %d", cfg.Graphics.FPSLimit)
	}
	if cfg.Viewer.ContainerID != "stage" {
		t.Errorf("expected container id stage, got %s", cfg.Viewer.ContainerID)
	}
	if len(cfg.Viewer.Models) != 2 || cfg.Viewer.Models[1] != "b.glb" {
		t.Errorf("expected models [a.glb b.glb], got %v", cfg.Viewer.Models)
	}
	if cfg.Camera.FOV != 60 {
		t.Errorf("expected fov 60, got %v", cfg.Camera.FOV)
	}
	// Unset keys keep their defaults.
	if cfg.Camera.Far != 1000 {
		t.Errorf("expected far plane to stay 1000, got %v", cfg.Camera.Far)
	}
	if cfg.PostFX.BloomStrength != 1.5 {
		t.Errorf("expected bloom strength 1.5, got %v", cfg.PostFX.BloomStrength)
	}
	if cfg.PostFX.BloomThreshold != 0.85 {
		t.Errorf("expected bloom threshold to stay 0.85, got %v", cfg.PostFX.BloomThreshold)
	}
	if !cfg.PostFX.FilmGrayscale {
		t.Error("expected film grayscale to be true")
	}
	if cfg.Loader.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Loader.Timeout)
	}
	if cfg.Logging.LogFile != "viewer.log" {
		t.Errorf("expected log file 'viewer.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Graphics.Width = 0 }},
		{"negative height", func(c *Config) { c.Graphics.Height = -1 }},
		{"pixel ratio below one", func(c *Config) { c.Graphics.MaxPixelRatio = 0.5 }},
		{"empty container", func(c *Config) { c.Viewer.ContainerID = "" }},
		{"no models", func(c *Config) { c.Viewer.Models = nil }},
		{"far before near", func(c *Config) { c.Camera.Far = 0.01 }},
		{"damping out of range", func(c *Config) { c.Camera.Damping = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "no-vsync flag",
			setup: func() { *flagNoVSync = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.VSync {
					t.Error("expected vsync off with no-vsync flag")
				}
			},
			teardown: func() { *flagNoVSync = false },
		},
		{
			name:  "models flag",
			setup: func() { *flagModels = " one.glb, two.glb ,," },
			verify: func(t *testing.T, cfg *Config) {
				if len(cfg.Viewer.Models) != 2 || cfg.Viewer.Models[0] != "one.glb" || cfg.Viewer.Models[1] != "two.glb" {
					t.Errorf("expected [one.glb two.glb], got %v", cfg.Viewer.Models)
				}
			},
			teardown: func() { *flagModels = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("viewer:\n  models: []\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected error for config without models, got nil")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Viewer.Models = []string{"x.glb"}
	cfg.PostFX.FilmScanlineCount = 320
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if len(loaded.Viewer.Models) != 1 || loaded.Viewer.Models[0] != "x.glb" {
		t.Errorf("expected models [x.glb], got %v", loaded.Viewer.Models)
	}
	if loaded.PostFX.FilmScanlineCount != 320 {
		t.Errorf("expected scanline count 320, got %d", loaded.PostFX.FilmScanlineCount)
	}
}
