package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Neon palette for headers and the connecting spinner.
const (
	ColorNeonPink   lipgloss.Color = "#FF2E97"
	ColorNeonCyan   lipgloss.Color = "#00F0FF"
	ColorNeonPurple lipgloss.Color = "#B967FF"
	ColorNeonGreen  lipgloss.Color = "#05FFA1"
	ColorNeonOrange lipgloss.Color = "#FF9E3D"
	ColorNeonAmber  lipgloss.Color = "#FFD23F"

	ColorDeepVoid    lipgloss.Color = "#0D0D1A"
	ColorDarkSurface lipgloss.Color = "#1A1A2E"
	ColorGlassBorder lipgloss.Color = "#3D3D5C"
)

// Semantic colors for status indication.
const (
	ColorSuccess lipgloss.Color = "#05FFA1"
	ColorError   lipgloss.Color = "#FF3B5C"
	ColorWarning lipgloss.Color = "#FFD23F"
	ColorInfo    lipgloss.Color = "#00F0FF"
)

// Text colors for content hierarchy.
const (
	ColorPrimary   lipgloss.Color = "#E6E6F0"
	ColorSecondary lipgloss.Color = "#8A8AFF"
	ColorMuted     lipgloss.Color = "#6C6C8A"
)

// GradientColors is the spinner's color cycle (pink -> purple -> cyan -> green).
var GradientColors = []lipgloss.Color{
	ColorNeonPink,
	ColorNeonPurple,
	ColorNeonCyan,
	ColorNeonGreen,
}

func SuccessStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorSuccess) }
func ErrorStyle() lipgloss.Style   { return lipgloss.NewStyle().Foreground(ColorError) }
func WarningStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorWarning) }
func InfoStyle() lipgloss.Style    { return lipgloss.NewStyle().Foreground(ColorInfo) }
func MutedStyle() lipgloss.Style   { return lipgloss.NewStyle().Foreground(ColorMuted) }

// thresholdColor maps a usage percentage to green, amber (>=60) or red (>=80).
func thresholdColor(percent float64) lipgloss.Color {
	switch {
	case percent >= 80:
		return ColorError
	case percent >= 60:
		return ColorWarning
	default:
		return ColorSuccess
	}
}

// PrintWarning writes a warning line to stderr.
func PrintWarning(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", WarningStyle().Render(SymbolWarning), msg)
}

// DisableColors switches lipgloss to plain ASCII output (--no-color, NO_COLOR).
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
