package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"flow-settings/pkg/config"
	"flow-settings/pkg/controller"
	"flow-settings/pkg/kv"
	"flow-settings/pkg/logger"
	"flow-settings/pkg/metrics"
	"flow-settings/pkg/performance"
	"flow-settings/pkg/portal"
	"flow-settings/pkg/prefs"
	"flow-settings/screens/settings"
)

const (
	targetFPS = 60
	// Frames between frame-time reports
	reportEvery = 600
)

// log is the process logger for SDL bootstrapping
var log = zap.NewNop().Sugar()

func main() {
	// CRITICAL: Lock OS thread immediately before any other operations
	runtime.LockOSThread()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	cfg := config.Load()

	zl := logger.New(logger.Config{Level: cfg.LogLevel, Path: cfg.LogPath})
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)
	log = zl.Sugar()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	tuneRuntime()

	// Open the preference store before SDL so a broken backend fails fast
	backend, err := kv.Open(kv.OptionsFromConfig(cfg))
	if err != nil {
		log.Fatalf("Failed to open %s preference store: %v", cfg.Backend, err)
	}
	store := prefs.NewStore(backend, zl)
	defer func() {
		if err := store.Close(); err != nil {
			log.Warnf("Failed to close preference store: %v", err)
		}
	}()

	writer := prefs.NewWriter(store, zl)
	defer func() {
		if err := writer.Close(); err != nil {
			log.Warnf("Pending preference writes failed: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := controller.New(store, writer, zl)
	ctrl.Init(ctx)
	ctrl.Follow(ctx)

	var remote *portal.Portal
	if cfg.PortalEnabled {
		remote = portal.NewPortal(cfg.PortalAddr, cfg.PortalPort, store, zl)
		if err := remote.Start(); err != nil {
			log.Warnf("Remote portal unavailable: %v", err)
			remote = nil
		} else {
			defer func() {
				if err := remote.Stop(); err != nil {
					log.Warnf("Error stopping portal: %v", err)
				}
			}()
		}
	}

	// Initialize SDL2 with fallback options
	if err := initializeSDL2(); err != nil {
		log.Fatalf("Failed to initialize SDL2: %v", err)
	}
	defer func() {
		log.Info("Shutting down SDL2...")
		sdl.Quit()
	}()

	screenWidth, screenHeight := displaySize()
	log.Infof("Starting %s | Resolution: %dx%d | Backend: %s", cfg.Title, screenWidth, screenHeight, cfg.Backend)
	logDisplays()

	window, err := createWindow(cfg.Title, screenWidth, screenHeight)
	if err != nil {
		log.Fatalf("Failed to create window: %v", err)
	}
	defer window.Destroy()

	renderer, err := createRenderer(window)
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}
	defer renderer.Destroy()

	screen := settings.NewSettingsScreen(window, renderer, cfg.Title, ctrl, remote, zl)
	defer screen.Close()

	runGameLoop(screen)

	log.Infof("%s shutting down...", cfg.Title)
}

// runGameLoop executes the main SDL2 game loop
func runGameLoop(screen *settings.SettingsScreen) {
	running := true
	frameTime := time.Second / targetFPS
	lastTime := time.Now()
	frameCount := 0
	monitor := performance.NewFrameMonitor(2*targetFPS, frameTime)

	for running {
		// Handle SDL2 events (already locked to main thread)
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch event.(type) {
			case *sdl.QuitEvent:
				running = false
			}
		}

		frameStart := time.Now()
		if err := screen.Update(); err != nil {
			log.Errorf("Screen update error: %v", err)
			break
		}
		if screen.CloseRequested() {
			break
		}

		drawStart := time.Now()
		if err := screen.Draw(); err != nil {
			log.Errorf("Screen draw error: %v", err)
			break
		}
		monitor.RecordFrame(drawStart.Sub(frameStart), time.Since(drawStart))

		frameCount++
		if frameCount%reportEvery == 0 {
			reportFrames(monitor.Report())
		}

		// Frame rate limiting
		elapsed := time.Since(lastTime)
		if elapsed < frameTime {
			time.Sleep(frameTime - elapsed)
		}
		lastTime = time.Now()
	}
}

// reportFrames logs and publishes the frame-time report
func reportFrames(r performance.FrameReport) {
	metrics.SetFrameTime(time.Duration(r.AvgFrameMs * float64(time.Millisecond)))
	if r.IsHealthy {
		log.Debugf("Frame time avg=%.2fms late=%.1f%% frames=%d", r.AvgFrameMs, r.LateRate, r.TotalFrames)
		return
	}
	log.Warnf("Frame budget exceeded: avg=%.2fms (update %.2fms, draw %.2fms) late=%.1f%%",
		r.AvgFrameMs, r.AvgUpdateMs, r.AvgDrawMs, r.LateRate)
}
