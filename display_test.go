package main

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVideoDrivers_EnvironmentGoesFirst(t *testing.T) {
	t.Setenv("SDL_VIDEODRIVER", "x11")
	assert.Equal(t, []string{"x11", "fbcon", "software", "dummy"}, videoDrivers())
}

func TestVideoDrivers_PlatformChainEndsWithDummy(t *testing.T) {
	t.Setenv("SDL_VIDEODRIVER", "")

	drivers := videoDrivers()
	assert.Equal(t, "dummy", drivers[len(drivers)-1])
	if runtime.GOOS == "darwin" {
		assert.Equal(t, "cocoa", drivers[0])
		return
	}
	assert.Equal(t, "kmsdrm", drivers[0])
	for _, d := range drivers {
		if _, gpu := gpuDrivers[d]; gpu {
			assert.Contains(t, []string{"kmsdrm", "drm"}, d)
		}
	}
}
