package terminal

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"flow-settings/pkg/theme"
)

// styles are rebuilt from the active palette on every render so a dark mode
// toggle shows immediately
type styles struct {
	title    lipgloss.Style
	label    lipgloss.Style
	selected lipgloss.Style
	on       lipgloss.Style
	off      lipgloss.Style
	track    lipgloss.Style
	fill     lipgloss.Style
	muted    lipgloss.Style
	ok       lipgloss.Style
	err      lipgloss.Style
	frame    lipgloss.Style
}

func hex(c theme.Color) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

func newStyles(p theme.Palette) styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(hex(p.Text)).MarginBottom(1),
		label:    lipgloss.NewStyle().Foreground(hex(p.Text)).Width(12),
		selected: lipgloss.NewStyle().Background(hex(p.Selection)),
		on:       lipgloss.NewStyle().Bold(true).Foreground(hex(p.Knob)).Background(hex(p.Accent)).Padding(0, 1),
		off:      lipgloss.NewStyle().Foreground(hex(p.TextMuted)).Background(hex(p.Track)).Padding(0, 1),
		track:    lipgloss.NewStyle().Foreground(hex(p.Track)),
		fill:     lipgloss.NewStyle().Foreground(hex(p.Accent)),
		muted:    lipgloss.NewStyle().Foreground(hex(p.TextMuted)),
		ok:       lipgloss.NewStyle().Foreground(hex(p.StatusOK)),
		err:      lipgloss.NewStyle().Foreground(hex(p.StatusError)),
		frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(hex(p.Accent)).
			Background(hex(p.Background)).
			Padding(1, 2),
	}
}
