package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/veandco/go-sdl2/sdl"
)

const (
	fallbackWidth  = 1920
	fallbackHeight = 1080

	// Pi-sized heap budget, used unless GOGC / GOMEMLIMIT are set
	armGCPercent   = 25
	armMemoryLimit = 256 << 20
)

// driverHints are the SDL hints set before trying each video driver, in
// addition to SDL_VIDEODRIVER itself
var driverHints = map[string]map[string]string{
	"cocoa": {
		"SDL_VIDEO_COCOA_ALLOW_SCREENSAVER": "1",
		"SDL_VIDEO_COCOA_SCALE_FACTOR":      "1",
	},
	"kmsdrm": {
		"SDL_KMSDRM_REQUIRE_DRM_MASTER": "1",
		"SDL_VIDEO_KMSDRM_DEVINDEX":     "0",
		// Synchronous flips avoid VC4 async flip errors
		"SDL_RENDER_VSYNC":            "1",
		"SDL_VIDEO_ALLOW_SCREENSAVER": "0",
	},
	"fbcon":    {"SDL_FBDEV": "/dev/fb0"},
	"wayland":  {"SDL_VIDEO_WAYLAND_WMCLASS": "flow-settings"},
	"x11":      {"SDL_VIDEO_X11_NET_WM_BYPASS_COMPOSITOR": "0"},
	"software": {"SDL_FRAMEBUFFER_ACCELERATION": "0"},
}

// gpuDrivers get an accelerated renderer first
var gpuDrivers = map[string]string{
	"kmsdrm": "opengles2",
	"drm":    "opengles2",
	"cocoa":  "opengl",
}

// tuneRuntime keeps the heap small on ARM boards. Explicit GOGC and
// GOMEMLIMIT settings win.
func tuneRuntime() {
	if runtime.GOARCH != "arm64" && runtime.GOARCH != "arm" {
		return
	}
	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(armGCPercent)
		log.Infow("Runtime tuned for ARM", "gc_percent", armGCPercent)
	}
	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(armMemoryLimit)
		log.Infow("Runtime tuned for ARM", "memory_limit", armMemoryLimit)
	}
}

// videoDrivers lists the drivers to try in order. SDL_VIDEODRIVER from the
// environment goes first.
func videoDrivers() []string {
	if env := os.Getenv("SDL_VIDEODRIVER"); env != "" {
		log.Infof("Using environment SDL_VIDEODRIVER: %s", env)
		return []string{env, "fbcon", "software", "dummy"}
	}
	if runtime.GOOS == "darwin" {
		return []string{"cocoa", "software", "dummy"}
	}
	// Pi 4/5 GPU first, then framebuffer and display servers
	return []string{"kmsdrm", "drm", "fbcon", "wayland", "x11", "software", "dummy"}
}

// initializeSDL2 initializes SDL2 with fallback video drivers
func initializeSDL2() error {
	logSystem()

	for _, driver := range videoDrivers() {
		if err := trySDLInitialization(driver); err != nil {
			log.Warnf("SDL2 initialization failed with %s driver: %v", driver, err)
			continue
		}
		log.Infof("SDL2 successfully initialized with %s driver", driver)
		return nil
	}
	return fmt.Errorf("all SDL2 video drivers failed")
}

// logSystem records what the display stack has to work with
func logSystem() {
	fields := []any{"os", runtime.GOOS, "arch", runtime.GOARCH, "display", os.Getenv("DISPLAY")}
	if model, err := os.ReadFile("/proc/device-tree/model"); err == nil {
		fields = append(fields, "device", string(model))
	}
	_, fbErr := os.Stat("/dev/fb0")
	_, driErr := os.Stat("/dev/dri")
	fields = append(fields, "framebuffer", fbErr == nil, "dri", driErr == nil)
	log.Infow("System information", fields...)
}

// trySDLInitialization attempts to initialize SDL2 with one driver
func trySDLInitialization(driver string) error {
	// Clean up any previous attempt
	sdl.Quit()

	os.Setenv("SDL_VIDEODRIVER", driver)
	sdl.SetHint(sdl.HINT_VIDEODRIVER, driver)
	for name, value := range driverHints[driver] {
		sdl.SetHint(name, value)
	}

	sdl.SetHint(sdl.HINT_RENDER_BATCHING, "1")
	renderDriver, ok := gpuDrivers[driver]
	if !ok {
		renderDriver = "software"
	}
	sdl.SetHint(sdl.HINT_RENDER_DRIVER, renderDriver)
	sdl.SetHint(sdl.HINT_VIDEO_MINIMIZE_ON_FOCUS_LOSS, "0")

	// Video must come up on the main thread (required for macOS Cocoa)
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("SDL_INIT_VIDEO failed: %v", err)
	}
	if _, err := sdl.GetCurrentVideoDriver(); err != nil {
		return fmt.Errorf("failed to get video driver: %v", err)
	}

	// Audio is optional
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		log.Warnf("Audio initialization failed: %v", err)
	}
	return nil
}

// displaySize returns the size of the first display or a fallback
func displaySize() (int32, int32) {
	mode, err := sdl.GetCurrentDisplayMode(0)
	if err != nil {
		log.Warnf("Failed to get display mode, using fallback: %v", err)
		return fallbackWidth, fallbackHeight
	}
	return mode.W, mode.H
}

// logDisplays outputs the attached displays
func logDisplays() {
	n, err := sdl.GetNumVideoDisplays()
	if err != nil {
		log.Warnf("Failed to get number of displays: %v", err)
		return
	}
	for i := 0; i < n; i++ {
		mode, err := sdl.GetCurrentDisplayMode(i)
		if err != nil {
			log.Infof("Display %d: failed to get mode (%v)", i, err)
			continue
		}
		name, _ := sdl.GetDisplayName(i)
		log.Infow("Display", "index", i, "name", name, "width", mode.W, "height", mode.H, "refresh_hz", mode.RefreshRate)
	}
}

// createWindow creates a fullscreen window at the display origin
func createWindow(title string, width, height int32) (*sdl.Window, error) {
	return sdl.CreateWindow(title, 0, 0, width, height, sdl.WINDOW_SHOWN|sdl.WINDOW_FULLSCREEN)
}

// createRenderer creates an accelerated renderer on GPU drivers and falls
// back to the software renderer
func createRenderer(window *sdl.Window) (*sdl.Renderer, error) {
	driver, err := sdl.GetCurrentVideoDriver()
	if err != nil {
		driver = "unknown"
	}

	var renderer *sdl.Renderer
	if _, gpu := gpuDrivers[driver]; gpu {
		flags := uint32(sdl.RENDERER_ACCELERATED)
		// VSync on kmsdrm triggers VC4 async flip errors
		if driver != "kmsdrm" {
			flags |= sdl.RENDERER_PRESENTVSYNC
		}
		renderer, err = sdl.CreateRenderer(window, -1, flags)
		if err != nil {
			log.Warnf("Hardware acceleration failed, trying software: %v", err)
			renderer = nil
		}
	}

	if renderer == nil {
		log.Infof("Using software renderer for %s driver", driver)
		renderer, err = sdl.CreateRenderer(window, -1, sdl.RENDERER_SOFTWARE)
		if err != nil {
			return nil, err
		}
	}

	// Alpha blending for the popup overlay
	renderer.SetDrawBlendMode(sdl.BLENDMODE_BLEND)
	return renderer, nil
}
