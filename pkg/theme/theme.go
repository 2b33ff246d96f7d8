// Package theme switches the screen between its day and night palettes.
package theme

import "sync"

// NightMode selects the palette family
type NightMode int

const (
	ModeNightNo NightMode = iota
	ModeNightYes
)

// String returns the mode name
func (m NightMode) String() string {
	if m == ModeNightYes {
		return "night"
	}
	return "day"
}

// Color is an 8-bit RGBA color
type Color struct {
	R, G, B, A uint8
}

// Palette holds every color the settings screen draws with
type Palette struct {
	Overlay      Color // dimmed backdrop behind the popup
	Background   Color // popup body
	Selection    Color // highlighted row
	Accent       Color // active tab, checked switch, slider fill
	Track        Color // unchecked switch, empty slider track
	Knob         Color
	Text         Color
	TextMuted    Color
	StatusOK     Color
	StatusError  Color
	GradientFrom [3]uint8 // slider fill gradient
	GradientTo   [3]uint8
}

// Day is the light palette
var Day = Palette{
	Overlay:      Color{226, 232, 240, 220},
	Background:   Color{248, 250, 252, 255},
	Selection:    Color{203, 213, 225, 255},
	Accent:       Color{37, 99, 235, 255},
	Track:        Color{148, 163, 184, 255},
	Knob:         Color{255, 255, 255, 255},
	Text:         Color{15, 23, 42, 255},
	TextMuted:    Color{71, 85, 105, 255},
	StatusOK:     Color{22, 163, 74, 255},
	StatusError:  Color{220, 38, 38, 255},
	GradientFrom: [3]uint8{59, 130, 246},
	GradientTo:   [3]uint8{29, 78, 216},
}

// Night is the dark palette
var Night = Palette{
	Overlay:      Color{15, 23, 42, 220},
	Background:   Color{30, 41, 59, 255},
	Selection:    Color{51, 65, 85, 255},
	Accent:       Color{59, 130, 246, 255},
	Track:        Color{71, 85, 105, 255},
	Knob:         Color{241, 245, 249, 255},
	Text:         Color{255, 255, 255, 255},
	TextMuted:    Color{148, 163, 184, 255},
	StatusOK:     Color{34, 197, 94, 255},
	StatusError:  Color{239, 68, 68, 255},
	GradientFrom: [3]uint8{99, 102, 241},
	GradientTo:   [3]uint8{67, 56, 202},
}

// For returns the palette of mode
func For(mode NightMode) Palette {
	if mode == ModeNightYes {
		return Night
	}
	return Day
}

var (
	mu        sync.RWMutex
	mode      = ModeNightNo
	applied   = ModeNightNo
	listeners []func(Palette)
)

// SetDefaultNightMode sets the process-wide mode. It takes effect on the next
// ApplyDayNight.
func SetDefaultNightMode(m NightMode) {
	mu.Lock()
	defer mu.Unlock()
	mode = m
}

// DefaultNightMode returns the mode set by SetDefaultNightMode
func DefaultNightMode() NightMode {
	mu.RLock()
	defer mu.RUnlock()
	return mode
}

// OnApply registers a listener called with the new palette whenever
// ApplyDayNight changes the applied mode
func OnApply(fn func(Palette)) {
	mu.Lock()
	defer mu.Unlock()
	listeners = append(listeners, fn)
}

// ApplyDayNight makes the default mode the applied one and notifies
// listeners when it changed
func ApplyDayNight() {
	mu.Lock()
	if applied == mode {
		mu.Unlock()
		return
	}
	applied = mode
	p := For(applied)
	fns := make([]func(Palette), len(listeners))
	copy(fns, listeners)
	mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

// Current returns the applied palette
func Current() Palette {
	mu.RLock()
	defer mu.RUnlock()
	return For(applied)
}

// Applied returns the applied mode
func Applied() NightMode {
	mu.RLock()
	defer mu.RUnlock()
	return applied
}

// Reset restores day mode and drops listeners
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	mode = ModeNightNo
	applied = ModeNightNo
	listeners = nil
}
