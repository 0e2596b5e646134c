// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Camera   CameraConfig   `yaml:"camera"`
	PostFX   PostFXConfig   `yaml:"postfx"`
	Loader   LoaderConfig   `yaml:"loader"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	Fullscreen    bool    `yaml:"fullscreen"`
	VSync         bool    `yaml:"vsync"`
	FPSLimit      int     `yaml:"fps_limit"`       // used when vsync is off
	MaxPixelRatio float32 `yaml:"max_pixel_ratio"` // upper clamp for HiDPI scaling
	Samples       int     `yaml:"samples"`         // MSAA samples on the default framebuffer
}

// ViewerConfig holds the mount point and the model list.
type ViewerConfig struct {
	ContainerID   string   `yaml:"container_id"`
	Models        []string `yaml:"models"` // load index is the position in this list
	ScreenshotDir string   `yaml:"screenshot_dir"`
}

// CameraConfig holds projection and orbit control settings.
type CameraConfig struct {
	FOV         float32    `yaml:"fov"` // vertical, degrees
	Near        float32    `yaml:"near"`
	Far         float32    `yaml:"far"`
	Position    [3]float32 `yaml:"position"`
	Damping     float32    `yaml:"damping"`
	MaxPolarDeg float32    `yaml:"max_polar_deg"`
}

// PostFXConfig holds effect chain parameters.
type PostFXConfig struct {
	BloomStrength     float32 `yaml:"bloom_strength"`
	BloomRadius       float32 `yaml:"bloom_radius"`
	BloomThreshold    float32 `yaml:"bloom_threshold"`
	FilmNoise         float32 `yaml:"film_noise"`
	FilmScanlines     float32 `yaml:"film_scanlines"`
	FilmScanlineCount int     `yaml:"film_scanline_count"`
	FilmGrayscale     bool    `yaml:"film_grayscale"`
}

// LoaderConfig holds asset loading settings.
type LoaderConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the showcase defaults.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:         1280,
			Height:        720,
			Fullscreen:    false,
			VSync:         true,
			FPSLimit:      60,
			MaxPixelRatio: 2,
			Samples:       4,
		},
		Viewer: ViewerConfig{
			ContainerID: "threejs-container",
			Models: []string{
				"./models/50.glb",
				"./models/meta.glb",
				"./models/model.glb",
				"./models/skf.glb",
			},
			ScreenshotDir: "screenshots",
		},
		Camera: CameraConfig{
			FOV:         75,
			Near:        0.1,
			Far:         1000,
			Position:    [3]float32{50, 80, 80},
			Damping:     0.05,
			MaxPolarDeg: 90,
		},
		PostFX: PostFXConfig{
			BloomStrength:     0.5,
			BloomRadius:       0.4,
			BloomThreshold:    0.85,
			FilmNoise:         0.35,
			FilmScanlines:     0.025,
			FilmScanlineCount: 648,
			FilmGrayscale:     false,
		},
		Loader: LoaderConfig{
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings the viewer cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("graphics size must be positive, got %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Graphics.MaxPixelRatio < 1 {
		errs = append(errs, fmt.Errorf("max_pixel_ratio must be >= 1, got %v", c.Graphics.MaxPixelRatio))
	}
	if c.Viewer.ContainerID == "" {
		errs = append(errs, errors.New("viewer.container_id is empty"))
	}
	if len(c.Viewer.Models) == 0 {
		errs = append(errs, errors.New("viewer.models is empty"))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera clip planes invalid: near=%v far=%v", c.Camera.Near, c.Camera.Far))
	}
	if c.Camera.Damping <= 0 || c.Camera.Damping > 1 {
		errs = append(errs, fmt.Errorf("camera.damping must be in (0,1], got %v", c.Camera.Damping))
	}
	return errors.Join(errs...)
}
