// Package prefs persists the user preferences shown on the settings screen.
//
// Each field of a Record lives under its own key in a kv.Store and falls back
// to its default independently when the key is absent.
package prefs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Preference keys, fixed across releases
const (
	KeyVolume    = "volume_lvl"
	KeyBluetooth = "key_bluetooth"
	KeyVibration = "key_vibration"
	KeyDarkMode  = "key_darkmode"
)

// Volume bounds accepted from user input
const (
	MinVolume = 0
	MaxVolume = 100
)

var (
	// ErrUnknownKey is returned for keys outside the four preference keys
	ErrUnknownKey = errors.New("prefs: unknown key")
	// ErrInvalidValue is returned when a value does not fit its key's type
	ErrInvalidValue = errors.New("prefs: invalid value")
)

// Record is the persisted user-preference tuple
type Record struct {
	Volume    int  `json:"volume_lvl" yaml:"volume_lvl"`
	Bluetooth bool `json:"key_bluetooth" yaml:"key_bluetooth"`
	Vibration bool `json:"key_vibration" yaml:"key_vibration"`
	DarkMode  bool `json:"key_darkmode" yaml:"key_darkmode"`
}

// Defaults returns the record used when nothing has been stored yet
func Defaults() Record {
	return Record{Volume: 50}
}

// Keys returns the preference keys in display order
func Keys() []string {
	return []string{KeyVolume, KeyBluetooth, KeyVibration, KeyDarkMode}
}

// IsKey reports whether key is one of the preference keys
func IsKey(key string) bool {
	switch key {
	case KeyVolume, KeyBluetooth, KeyVibration, KeyDarkMode:
		return true
	}
	return false
}

// Label returns the human-readable name for a key
func Label(key string) string {
	switch key {
	case KeyVolume:
		return "Volume"
	case KeyBluetooth:
		return "Bluetooth"
	case KeyVibration:
		return "Vibration"
	case KeyDarkMode:
		return "Dark mode"
	}
	return key
}

// Get returns the value held by r for key
func (r Record) Get(key string) (any, error) {
	switch key {
	case KeyVolume:
		return r.Volume, nil
	case KeyBluetooth:
		return r.Bluetooth, nil
	case KeyVibration:
		return r.Vibration, nil
	case KeyDarkMode:
		return r.DarkMode, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// With returns a copy of r with key set to value
func (r Record) With(key string, value any) (Record, error) {
	if !IsKey(key) {
		return r, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	if key == KeyVolume {
		v, ok := value.(int)
		if !ok {
			return r, fmt.Errorf("%w: %s expects an integer, got %T", ErrInvalidValue, key, value)
		}
		r.Volume = v
		return r, nil
	}

	b, ok := value.(bool)
	if !ok {
		return r, fmt.Errorf("%w: %s expects a boolean, got %T", ErrInvalidValue, key, value)
	}
	switch key {
	case KeyBluetooth:
		r.Bluetooth = b
	case KeyVibration:
		r.Vibration = b
	case KeyDarkMode:
		r.DarkMode = b
	}
	return r, nil
}

// ParseValue converts user-supplied text into the typed value for key.
// Volumes must lie within [MinVolume, MaxVolume].
func ParseValue(key, text string) (any, error) {
	text = strings.TrimSpace(text)
	switch key {
	case KeyVolume:
		v, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects an integer: %q", ErrInvalidValue, key, text)
		}
		if v < MinVolume || v > MaxVolume {
			return nil, fmt.Errorf("%w: %s must be within %d..%d, got %d", ErrInvalidValue, key, MinVolume, MaxVolume, v)
		}
		return v, nil
	case KeyBluetooth, KeyVibration, KeyDarkMode:
		b, err := parseBool(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a boolean: %q", ErrInvalidValue, key, text)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

func parseBool(text string) (bool, error) {
	switch strings.ToLower(text) {
	case "on", "yes", "enabled":
		return true, nil
	case "off", "no", "disabled":
		return false, nil
	}
	return strconv.ParseBool(text)
}

// encodeValue renders a typed value the way it is stored
func encodeValue(key string, value any) ([]byte, error) {
	if _, err := Defaults().With(key, value); err != nil {
		return nil, err
	}
	switch v := value.(type) {
	case int:
		return []byte(strconv.Itoa(v)), nil
	case bool:
		return []byte(strconv.FormatBool(v)), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrInvalidValue, value)
}

// decodeRecord builds a Record from stored entries. Missing or malformed
// entries keep their default; malformed keys are returned for logging.
func decodeRecord(entries map[string][]byte) (Record, []string) {
	rec := Defaults()
	var malformed []string

	if raw, ok := entries[KeyVolume]; ok {
		if v, err := strconv.Atoi(string(raw)); err == nil {
			rec.Volume = v
		} else {
			malformed = append(malformed, KeyVolume)
		}
	}

	for _, key := range []string{KeyBluetooth, KeyVibration, KeyDarkMode} {
		raw, ok := entries[key]
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(string(raw))
		if err != nil {
			malformed = append(malformed, key)
			continue
		}
		rec, _ = rec.With(key, b)
	}

	return rec, malformed
}

// Snapshot is the portable form of a Record used for backups and exports
type Snapshot struct {
	Record  `yaml:",inline"`
	SavedAt time.Time `json:"saved_at" yaml:"saved_at"`
}

// NewSnapshot stamps r with the current time
func NewSnapshot(r Record) Snapshot {
	return Snapshot{Record: r, SavedAt: time.Now().UTC()}
}
