package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/morezaGeek/Server-Monitor/internal/ui"
)

// renderDashboard renders the card grid.
func (m Model) renderDashboard() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderCards())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders the title line with summary stats.
func (m Model) renderHeader() string {
	var updated string
	switch secs := m.SecondsSinceUpdate(); {
	case m.lastUpdate.IsZero():
		updated = "waiting"
	case secs == 0:
		updated = "just now"
	default:
		updated = fmt.Sprintf("%ds ago", secs)
	}

	title := lipgloss.NewStyle().Foreground(ui.ColorNeonPink).Bold(true).Render("servermon watch")
	stats := LabelStyle.Render(fmt.Sprintf(" | %d dashboards | %d online | sort %s | updated %s",
		len(m.names), m.OnlineCount(), m.sortOrder, updated))
	return HeaderStyle.Render(title + stats)
}

// renderCards lays the cards out in as many columns as fit.
func (m Model) renderCards() string {
	if len(m.names) == 0 {
		return LabelStyle.Render("No dashboards to watch")
	}

	cards := make([]string, len(m.names))
	for i, name := range m.names {
		cards[i] = m.renderCard(name, i == m.selected)
	}

	perRow := 1
	if m.width > 0 {
		perRow = max(1, m.width/(cardWidth+3))
	}

	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := min(i+perRow, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderCard renders one dashboard.
func (m Model) renderCard(name string, selected bool) string {
	status := m.status[name]
	lines := []string{NameStyle.Render(name) + "  " + m.renderStatus(status)}

	switch sample := m.latest(name); {
	case status == StatusOffline:
		lines = append(lines, statusStyle(status).Render(truncate(m.errors[name], cardWidth-4)))
		if sample != nil {
			lines = append(lines, LabelStyle.Render("last seen "+sample.Timestamp.Format(time.TimeOnly)))
		}
	case sample == nil:
		lines = append(lines, LabelStyle.Render("no samples yet"))
	default:
		h := m.history[name]
		cpu := make([]float64, len(h.Samples))
		for i, s := range h.Samples {
			cpu[i] = s.CPU.Percent
		}

		if sample.System.Hostname != "" {
			lines = append(lines, LabelStyle.Render(sample.System.Hostname))
		}
		lines = append(lines,
			LabelStyle.Render("CPU  ")+ui.RenderBar(sample.CPU.Percent, cardBarWidth)+" "+ui.RenderSparkline(cpu, cardSparkWidth),
			LabelStyle.Render("RAM  ")+ui.RenderBar(sample.Memory.Percent, cardBarWidth),
		)
		if sample.Disk != nil {
			lines = append(lines, LabelStyle.Render("Disk ")+ui.RenderBar(sample.Disk.Percent, cardBarWidth))
		}
		if nic := sample.Network.Interface(sample.Network.DefaultNIC); nic != nil {
			lines = append(lines, LabelStyle.Render("Net  ")+ValueStyle.Render(fmt.Sprintf("%s rx %s tx %s",
				nic.Name, ui.FormatRate(nic.RecvBps), ui.FormatRate(nic.SentBps))))
		}
	}

	style := CardStyle
	if selected {
		style = CardSelectedStyle
	}
	return style.Width(cardWidth).Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatus(s Status) string {
	dot := ui.SymbolComplete
	if s == StatusConnecting {
		dot = connectingFrames[m.spinnerFrame%len(connectingFrames)]
	}
	return statusStyle(s).Render(dot + " " + s.String())
}

// renderFooter renders the key hints.
func (m Model) renderFooter() string {
	hints := []string{"q quit", "r refresh", "s sort", "↑↓ select", "enter details", "? help"}
	if m.viewMode == ViewDetail {
		hints = []string{"esc back", "↑↓ scroll", "r refresh", "q quit"}
	}
	return FooterStyle.Render(strings.Join(hints, " | "))
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
