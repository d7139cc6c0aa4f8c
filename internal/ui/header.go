package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HeaderWidth is the width of the divider under the header.
const HeaderWidth = 50

// Field is a labelled line under the header title.
type Field struct {
	Label string
	Value string
	// Warn renders the value in the warning color.
	Warn bool
}

// HeaderInfo contains what the startup header shows.
type HeaderInfo struct {
	Version string
	Tagline string
	Fields  []Field
}

// RenderHeader renders the servermon title, an optional tagline, aligned
// fields and a divider.
func RenderHeader(info HeaderInfo) string {
	titleStyle := lipgloss.NewStyle().Foreground(ColorNeonPink).Bold(true)
	versionStyle := lipgloss.NewStyle().Foreground(ColorNeonCyan)
	labelStyle := MutedStyle()
	dividerStyle := lipgloss.NewStyle().Foreground(ColorGlassBorder)

	var b strings.Builder

	b.WriteString(titleStyle.Render("servermon"))
	if info.Version != "" {
		b.WriteString(" ")
		b.WriteString(versionStyle.Render(info.Version))
	}
	b.WriteString("\n")

	if info.Tagline != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(ColorSecondary).Render(info.Tagline))
		b.WriteString("\n")
	}

	width := 0
	for _, f := range info.Fields {
		if len(f.Label) > width {
			width = len(f.Label)
		}
	}
	for _, f := range info.Fields {
		value := f.Value
		if f.Warn {
			value = WarningStyle().Render(value)
		}
		b.WriteString(labelStyle.Render(f.Label + strings.Repeat(" ", width-len(f.Label)) + "  "))
		b.WriteString(value)
		b.WriteString("\n")
	}

	b.WriteString(dividerStyle.Render(strings.Repeat("━", HeaderWidth)))
	b.WriteString("\n")
	return b.String()
}
