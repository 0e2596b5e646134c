// Package main is the entry point for the model viewer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/modelviewer/internal/config"
	"github.com/Faultbox/modelviewer/internal/engine/frame"
	"github.com/Faultbox/modelviewer/internal/engine/input"
	"github.com/Faultbox/modelviewer/internal/engine/lighting"
	"github.com/Faultbox/modelviewer/internal/engine/loader"
	"github.com/Faultbox/modelviewer/internal/engine/renderer"
	"github.com/Faultbox/modelviewer/internal/engine/window"
	"github.com/Faultbox/modelviewer/internal/logger"
	"github.com/Faultbox/modelviewer/internal/viewer"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if path := config.WriteConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written to %s\n", path)
		return
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Model Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("viewer error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Window first: it owns the OpenGL context
	win, err := window.New(window.Config{
		Title:       "Model Viewer",
		ContainerID: cfg.Viewer.ContainerID,
		Width:       cfg.Graphics.Width,
		Height:      cfg.Graphics.Height,
		Fullscreen:  cfg.Graphics.Fullscreen,
		VSync:       cfg.Graphics.VSync,
		Samples:     cfg.Graphics.Samples,
	})
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer win.Close()

	shadowSize := int32(2048)
	if d, ok := lighting.DefaultSet().Directional(); ok && d.ShadowMapSize > 0 {
		shadowSize = d.ShadowMapSize
	}
	gfx, err := renderer.New(renderer.Config{ShadowMapSize: shadowSize})
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	defer gfx.Close()

	// With vsync the buffer swap paces frames
	var source frame.Source = frame.ImmediateSource{}
	if !cfg.Graphics.VSync {
		interval := frame.NewIntervalSource(cfg.Graphics.FPSLimit)
		defer interval.Stop()
		source = interval
	}

	in := input.New()
	v, err := viewer.New(cfg, viewer.Deps{
		Host:    win,
		Backend: gfx,
		Decoder: loader.GLTFDecoder{},
		Source:  source,
		Poll: func() []input.Event {
			win.PollEvents(in)
			return in.Events()
		},
		Swap:   win.SwapBuffers,
		Pixels: gfx,
	})
	if err != nil {
		return fmt.Errorf("failed to create viewer: %w", err)
	}
	defer v.Close()

	// Rejected requests are logged; the rest keep loading
	_ = v.Start()

	return v.Run(ctx)
}
