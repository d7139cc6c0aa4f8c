package monitor

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/morezaGeek/Server-Monitor/internal/ui"
)

// Card dimensions.
const (
	cardWidth      = 44
	cardBarWidth   = 16
	cardSparkWidth = 12
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ui.ColorPrimary).
			Background(ui.ColorDarkSurface).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted).
			Padding(0, 1)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorGlassBorder).
			Padding(0, 1).
			MarginRight(1).
			MarginBottom(1)

	CardSelectedStyle = CardStyle.
				BorderForeground(ui.ColorNeonPink)

	NameStyle = lipgloss.NewStyle().
			Foreground(ui.ColorPrimary).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ui.ColorSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ui.ColorPrimary)

	SectionStyle = lipgloss.NewStyle().
			Foreground(ui.ColorNeonCyan).
			Bold(true)
)

// statusStyle colors the status dot and label.
func statusStyle(s Status) lipgloss.Style {
	switch s {
	case StatusOnline:
		return lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	case StatusWaiting:
		return lipgloss.NewStyle().Foreground(ui.ColorWarning)
	case StatusOffline:
		return lipgloss.NewStyle().Foreground(ui.ColorError)
	default:
		return lipgloss.NewStyle().Foreground(ui.ColorMuted)
	}
}

// connectingFrames animate the status of dashboards not yet heard from.
var connectingFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
