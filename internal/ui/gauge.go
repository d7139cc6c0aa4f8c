package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	barFilled = '█'
	barEmpty  = '░'
)

var sparklineBlocks = []rune("▁▂▃▄▅▆▇█")

// RenderBar draws a usage bar of the given width followed by the
// percentage, colored by threshold: [████████░░░░]  67%
func RenderBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}

	filled := int(percent / 100 * float64(width))
	bar := "[" + strings.Repeat(string(barFilled), filled) + strings.Repeat(string(barEmpty), width-filled) + "]"

	style := lipgloss.NewStyle().Foreground(thresholdColor(percent))
	return style.Render(bar) + fmt.Sprintf(" %3.0f%%", percent)
}

// RenderSparkline draws the last width values as block characters scaled to
// their min/max range, colored by the threshold of the newest value.
func RenderSparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}

	levels := len(sparklineBlocks)
	span := maxVal - minVal

	var sb strings.Builder
	for _, v := range data {
		level := levels / 2
		if span > 0 {
			level = int((v - minVal) / span * float64(levels-1))
			level = max(0, min(level, levels-1))
		}
		sb.WriteRune(sparklineBlocks[level])
	}

	style := lipgloss.NewStyle().Foreground(thresholdColor(data[len(data)-1]))
	return style.Render(sb.String())
}

// FormatBytes renders a byte count with binary units: 512 B, 1.5 KiB, 3.2 GiB.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatRate renders a bytes-per-second rate: 1.2 MiB/s.
func FormatRate(bps float64) string {
	if bps < 0 {
		bps = 0
	}
	return FormatBytes(uint64(bps)) + "/s"
}
