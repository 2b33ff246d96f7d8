package terminal

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flow-settings/pkg/controller"
	"flow-settings/pkg/kv"
	"flow-settings/pkg/prefs"
	"flow-settings/pkg/theme"
)

func newTestModel(t *testing.T) (Model, *prefs.Store, *prefs.Writer) {
	t.Helper()
	theme.Reset()
	t.Cleanup(theme.Reset)

	store := prefs.NewStore(kv.NewMemory(), nil)
	writer := prefs.NewWriter(store, nil)
	t.Cleanup(func() { _ = writer.Close() })

	ctrl := controller.New(store, writer, nil)
	ctrl.Init(context.Background())

	m := New(ctrl)
	require.Eventually(t, func() bool {
		next, _ := m.Update(drainMsg(time.Now()))
		m = next.(Model)
		return ctrl.Ready()
	}, 2*time.Second, 5*time.Millisecond)
	return m, store, writer
}

func press(m Model, msgs ...tea.KeyMsg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestView_ShowsRowsWithDefaults(t *testing.T) {
	m, _, _ := newTestModel(t)

	view := m.View()
	for _, label := range []string{"Volume", "Bluetooth", "Vibration", "Dark mode"} {
		assert.Contains(t, view, label)
	}
	assert.Contains(t, view, " 50")
	assert.Contains(t, view, "OFF")
}

func TestKeys_AdjustAndTogglePersist(t *testing.T) {
	m, store, writer := newTestModel(t)

	m = press(m,
		tea.KeyMsg{Type: tea.KeyRight},
		tea.KeyMsg{Type: tea.KeyRight},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyEnter},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}},
	)
	assert.Equal(t, 3, m.Selected())
	assert.Equal(t, theme.ModeNightYes, theme.Applied())

	require.NoError(t, writer.Flush())
	rec, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, prefs.Record{Volume: 52, Bluetooth: true, DarkMode: true}, rec)
}

func TestKeys_SelectionStaysInRange(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.Selected())

	for i := 0; i < 10; i++ {
		m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 3, m.Selected())
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, next.View())
}
