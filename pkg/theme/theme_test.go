package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDayNight(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var got []Palette
	OnApply(func(p Palette) { got = append(got, p) })

	assert.Equal(t, Day, Current())

	SetDefaultNightMode(ModeNightYes)
	assert.Equal(t, ModeNightYes, DefaultNightMode())
	assert.Equal(t, Day, Current(), "mode is not applied until ApplyDayNight")

	ApplyDayNight()
	assert.Equal(t, Night, Current())
	assert.Equal(t, ModeNightYes, Applied())

	// Applying the same mode again does not notify
	ApplyDayNight()
	assert.Len(t, got, 1)

	SetDefaultNightMode(ModeNightNo)
	ApplyDayNight()
	assert.Equal(t, []Palette{Night, Day}, got)
}

func TestNightModeString(t *testing.T) {
	assert.Equal(t, "night", ModeNightYes.String())
	assert.Equal(t, "day", ModeNightNo.String())
}

func TestApplyDayNight_ListenerMayRegisterAnother(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	late := 0
	OnApply(func(Palette) {
		OnApply(func(Palette) { late++ })
	})

	SetDefaultNightMode(ModeNightYes)
	ApplyDayNight()
	assert.Zero(t, late, "a listener added during a notification waits for the next one")

	SetDefaultNightMode(ModeNightNo)
	ApplyDayNight()
	assert.Equal(t, 1, late)
}
