package input

import (
	"time"

	"github.com/veandco/go-sdl2/sdl"
)

// Key repeat timing for held keys
const (
	DefaultRepeatDelay    = 400 * time.Millisecond
	DefaultRepeatInterval = 60 * time.Millisecond
)

// KeyPressTracker manages key press state to prevent duplicate key presses
type KeyPressTracker struct {
	pressed map[sdl.Scancode]bool
}

// NewKeyPressTracker creates a new KeyPressTracker
func NewKeyPressTracker() KeyPressTracker {
	return KeyPressTracker{
		pressed: make(map[sdl.Scancode]bool),
	}
}

// IsPressed checks if a key was just pressed (not held)
func (kpt *KeyPressTracker) IsPressed(keyState []uint8, scancode sdl.Scancode) bool {
	isCurrentlyPressed := keyState[scancode] != 0
	wasPressed := kpt.pressed[scancode]

	kpt.pressed[scancode] = isCurrentlyPressed

	return isCurrentlyPressed && !wasPressed
}

// KeyRepeatTracker reports a press when a key goes down and then again at a
// fixed interval while it is held, like a keyboard's auto-repeat
type KeyRepeatTracker struct {
	Delay    time.Duration
	Interval time.Duration
	next     map[sdl.Scancode]time.Time
}

// NewKeyRepeatTracker creates a tracker with the default timing
func NewKeyRepeatTracker() KeyRepeatTracker {
	return KeyRepeatTracker{
		Delay:    DefaultRepeatDelay,
		Interval: DefaultRepeatInterval,
		next:     make(map[sdl.Scancode]time.Time),
	}
}

// IsRepeated checks if a key was just pressed or is due for a repeat at now
func (krt *KeyRepeatTracker) IsRepeated(keyState []uint8, scancode sdl.Scancode, now time.Time) bool {
	if keyState[scancode] == 0 {
		delete(krt.next, scancode)
		return false
	}

	due, held := krt.next[scancode]
	if !held {
		krt.next[scancode] = now.Add(krt.Delay)
		return true
	}
	if now.Before(due) {
		return false
	}
	krt.next[scancode] = due.Add(krt.Interval)
	if krt.next[scancode].Before(now) {
		// Frames were dropped; do not burst to catch up
		krt.next[scancode] = now.Add(krt.Interval)
	}
	return true
}

// MousePressTracker manages mouse button press state to prevent duplicate presses
type MousePressTracker struct {
	// Keyed by SDL button mask (e.g. sdl.ButtonLMask())
	pressed map[uint32]bool
}

// NewMousePressTracker creates a new MousePressTracker
func NewMousePressTracker() MousePressTracker {
	return MousePressTracker{
		pressed: make(map[uint32]bool),
	}
}

// IsPressed checks if a mouse button (by mask) was just pressed (not held)
func (mpt *MousePressTracker) IsPressed(mouseState uint32, buttonMask uint32) bool {
	isCurrentlyPressed := (mouseState & buttonMask) != 0
	wasPressed := mpt.pressed[buttonMask]

	mpt.pressed[buttonMask] = isCurrentlyPressed

	return isCurrentlyPressed && !wasPressed
}
