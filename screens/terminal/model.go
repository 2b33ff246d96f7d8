// Package terminal is a text-mode settings screen. It drives the same
// controller as the SDL screen, so every change is persisted the same way.
package terminal

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"flow-settings/pkg/controller"
	"flow-settings/pkg/theme"
)

// How often queued controller work is drained
const drainInterval = 50 * time.Millisecond

// Width of the volume bar in cells
const barWidth = 20

type drainMsg time.Time

// Model is the bubbletea model of the settings screen
type Model struct {
	ctrl     *controller.Controller
	selected int
	quitting bool
}

// New creates a model over ctrl. The caller starts ctrl.Init and Follow.
func New(ctrl *controller.Controller) Model {
	return Model{ctrl: ctrl}
}

// Run shows the screen until the user quits or ctx is done
func Run(ctx context.Context, ctrl *controller.Controller) error {
	_, err := tea.NewProgram(New(ctrl), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func drain() tea.Cmd {
	return tea.Tick(drainInterval, func(t time.Time) tea.Msg { return drainMsg(t) })
}

// Init starts the drain ticker
func (m Model) Init() tea.Cmd {
	return drain()
}

// Selected returns the selected row
func (m Model) Selected() int {
	return m.selected
}

// Update handles keys and drain ticks
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case drainMsg:
		m.ctrl.Drain()
		return m, drain()

	case tea.KeyMsg:
		rows := len(m.ctrl.Rows())
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j", "tab":
			if m.selected < rows-1 {
				m.selected++
			}
		case "left", "h", "-":
			m.ctrl.Adjust(m.selected, -1)
		case "right", "l", "+":
			m.ctrl.Adjust(m.selected, 1)
		case "pgdown":
			m.ctrl.Adjust(m.selected, -10)
		case "pgup":
			m.ctrl.Adjust(m.selected, 10)
		case "enter", " ":
			m.ctrl.Activate(m.selected)
		}
	}
	return m, nil
}

// View renders the screen
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := newStyles(theme.Current())
	var b strings.Builder

	b.WriteString(st.title.Render("Settings"))
	b.WriteString("\n")

	if !m.ctrl.Ready() {
		b.WriteString(st.muted.Render("Loading…"))
		return st.frame.Render(b.String())
	}

	for i, row := range m.ctrl.Rows() {
		cursor := "  "
		if i == m.selected {
			cursor = "▸ "
		}

		var control string
		switch {
		case row.Slider != nil:
			filled := int(row.Slider.Fraction()*barWidth + 0.5)
			control = st.fill.Render(strings.Repeat("█", filled)) +
				st.track.Render(strings.Repeat("░", barWidth-filled)) +
				fmt.Sprintf(" %3d", int(row.Slider.Value()))
		case row.Switch != nil && row.Switch.Checked():
			control = st.on.Render("ON ")
		case row.Switch != nil:
			control = st.off.Render("OFF")
		}

		line := cursor + st.label.Render(row.Label) + " " + control
		if i == m.selected {
			line = st.selected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	status := m.ctrl.Status()
	b.WriteString("\n")
	switch {
	case status.Error:
		b.WriteString(st.err.Render(status.Text))
	case status.Text != "":
		b.WriteString(st.ok.Render(status.Text))
	}
	b.WriteString("\n")
	b.WriteString(st.muted.Render("↑/↓ select • ←/→ adjust • enter toggle • q quit"))

	return st.frame.Render(b.String())
}
