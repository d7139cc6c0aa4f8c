package monitor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/morezaGeek/Server-Monitor/internal/telemetry"
	"github.com/morezaGeek/Server-Monitor/internal/ui"
)

const detailBarWidth = 30

// renderDetailView renders the expanded view of the selected dashboard.
func (m Model) renderDetailView() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if m.viewportReady {
		b.WriteString(m.detailViewport.View())
	} else {
		b.WriteString(m.renderDetailContent(m.Selected()))
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// updateDetailViewportContent refreshes the viewport with the selected
// dashboard, keeping the scroll position.
func (m *Model) updateDetailViewportContent() {
	if !m.viewportReady {
		return
	}
	m.detailViewport.SetContent(m.renderDetailContent(m.Selected()))
}

// renderDetailContent renders everything known about one dashboard.
func (m Model) renderDetailContent(name string) string {
	if name == "" {
		return ""
	}

	var b strings.Builder
	status := m.status[name]
	fmt.Fprintf(&b, "%s  %s\n", NameStyle.Render(name), m.renderStatus(status))
	if msg := m.errors[name]; msg != "" {
		b.WriteString(statusStyle(StatusOffline).Render(msg) + "\n")
	}

	sample := m.latest(name)
	if sample == nil {
		b.WriteString(LabelStyle.Render("no samples yet") + "\n")
		return b.String()
	}
	samples := m.history[name].Samples
	sparkWidth := max(10, m.width-detailBarWidth-20)

	b.WriteString("\n" + SectionStyle.Render("System") + "\n")
	detailRow(&b, "hostname", sample.System.Hostname)
	detailRow(&b, "uptime", (time.Duration(sample.System.UptimeSeconds) * time.Second).String())
	detailRow(&b, "sampled", sample.Timestamp.Format(time.RFC3339))
	detailRow(&b, "cores", fmt.Sprintf("%d", sample.CPU.Cores))
	detailRow(&b, "load", fmt.Sprintf("%.2f %.2f %.2f", sample.CPU.LoadAvg[0], sample.CPU.LoadAvg[1], sample.CPU.LoadAvg[2]))

	b.WriteString("\n" + SectionStyle.Render("CPU") + "\n")
	detailRow(&b, "usage", ui.RenderBar(sample.CPU.Percent, detailBarWidth))
	detailRow(&b, "history", ui.RenderSparkline(series(samples, func(s telemetry.Sample) float64 { return s.CPU.Percent }), sparkWidth))

	mem := sample.Memory
	b.WriteString("\n" + SectionStyle.Render("Memory") + "\n")
	detailRow(&b, "usage", ui.RenderBar(mem.Percent, detailBarWidth))
	detailRow(&b, "history", ui.RenderSparkline(series(samples, func(s telemetry.Sample) float64 { return s.Memory.Percent }), sparkWidth))
	detailRow(&b, "total", ui.FormatBytes(uint64(mem.Total)))
	detailRow(&b, "used", ui.FormatBytes(uint64(mem.Used)))
	detailRow(&b, "buff/cache", ui.FormatBytes(uint64(mem.BuffCache)))
	detailRow(&b, "available", ui.FormatBytes(uint64(mem.Available)))
	if sample.Swap.Total > 0 {
		detailRow(&b, "swap", ui.RenderBar(sample.Swap.Percent, detailBarWidth)+" "+
			ui.FormatBytes(uint64(sample.Swap.Used))+" / "+ui.FormatBytes(uint64(sample.Swap.Total)))
	}

	if d := sample.Disk; d != nil {
		b.WriteString("\n" + SectionStyle.Render("Disk "+d.Path) + "\n")
		detailRow(&b, "usage", ui.RenderBar(d.Percent, detailBarWidth))
		detailRow(&b, "used", ui.FormatBytes(d.Used)+" / "+ui.FormatBytes(d.Total))
		detailRow(&b, "free", ui.FormatBytes(d.Free))
	}

	b.WriteString("\n" + SectionStyle.Render("Network") + "\n")
	for _, nic := range sample.Network.Interfaces {
		label := nic.Name
		if nic.Name == sample.Network.DefaultNIC {
			label += " *"
		} else if nic.Virtual {
			label += " (v)"
		}
		detailRow(&b, label, fmt.Sprintf("rx %s  tx %s  total %s / %s",
			ui.FormatRate(nic.RecvBps), ui.FormatRate(nic.SentBps),
			ui.FormatBytes(uint64(nic.BytesIn)), ui.FormatBytes(uint64(nic.BytesOut))))
	}

	if c := sample.Connections; c != nil {
		b.WriteString("\n" + SectionStyle.Render("Connections") + "\n")
		detailRow(&b, "total", fmt.Sprintf("tcp %d  udp %d", c.Total.TCP, c.Total.UDP))
		names := make([]string, 0, len(c.Interfaces))
		for name := range c.Interfaces {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			n := c.Interfaces[name]
			detailRow(&b, name, fmt.Sprintf("tcp %d  udp %d", n.TCP, n.UDP))
		}
	}

	return b.String()
}

func detailRow(b *strings.Builder, label, value string) {
	b.WriteString("  " + LabelStyle.Render(fmt.Sprintf("%-12s", label)) + ValueStyle.Render(value) + "\n")
}

// series extracts one metric from every sample.
func series(samples []telemetry.Sample, metric func(telemetry.Sample) float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = metric(s)
	}
	return out
}
