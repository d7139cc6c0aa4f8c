package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/morezaGeek/Server-Monitor/internal/monitor"
	"github.com/morezaGeek/Server-Monitor/internal/server"
	"github.com/morezaGeek/Server-Monitor/internal/telemetry"
	"github.com/morezaGeek/Server-Monitor/internal/ui"
	"github.com/spf13/cobra"
)

const (
	defaultStatsURL = "http://localhost:8080"
	statsBarWidth   = 20
	statsSparkWidth = 30
)

var (
	statsURL   string
	statsUser  string
	statsLimit int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print telemetry from a running dashboard",
	Long: `Fetch the sample history from a running dashboard and print current
usage with sparklines of recent history.

The dashboard password is read from SERVERMON_DASHBOARD_PASSWORD.

Examples:
  servermon stats
  servermon stats --url https://dash.example.com --user admin --limit 60`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		client := monitor.NewClient(monitor.Dashboard{
			URL:      statsURL,
			User:     statsUser,
			Password: os.Getenv(EnvDashboardPassword),
		})
		history, err := client.History(ctx, statsLimit)
		if err != nil {
			return err
		}
		renderStats(cmd.OutOrStdout(), history)
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsURL, "url", defaultStatsURL, "dashboard base URL")
	statsCmd.Flags().StringVarP(&statsUser, "user", "u", "", "dashboard username")
	statsCmd.Flags().IntVar(&statsLimit, "limit", statsSparkWidth, "number of samples to fetch")
	rootCmd.AddCommand(statsCmd)
}

// renderStats prints the newest sample with sparklines over the history.
func renderStats(w io.Writer, history *server.HistoryResponse) {
	if len(history.Samples) == 0 {
		fmt.Fprintf(w, "%s No samples yet; the sampler runs every %s\n", ui.SymbolPending, history.Interval)
		return
	}

	samples := history.Samples
	latest := samples[len(samples)-1]

	title := latest.System.Hostname
	if title == "" {
		title = "host"
	}
	fmt.Fprintf(w, "%s  up %s  %s\n", ui.InfoStyle().Render(title),
		time.Duration(latest.System.UptimeSeconds)*time.Second,
		ui.MutedStyle().Render(latest.Timestamp.Format(time.RFC3339)))

	cpu := make([]float64, len(samples))
	mem := make([]float64, len(samples))
	for i, s := range samples {
		cpu[i] = s.CPU.Percent
		mem[i] = s.Memory.Percent
	}

	fmt.Fprintf(w, "%-5s %s  %s  load %.2f %.2f %.2f\n", "CPU",
		ui.RenderBar(latest.CPU.Percent, statsBarWidth),
		ui.RenderSparkline(cpu, statsSparkWidth),
		latest.CPU.LoadAvg[0], latest.CPU.LoadAvg[1], latest.CPU.LoadAvg[2])
	fmt.Fprintf(w, "%-5s %s  %s  %s / %s\n", "RAM",
		ui.RenderBar(latest.Memory.Percent, statsBarWidth),
		ui.RenderSparkline(mem, statsSparkWidth),
		ui.FormatBytes(uint64(latest.Memory.Total-latest.Memory.Available)),
		ui.FormatBytes(uint64(latest.Memory.Total)))
	if latest.Swap.Total > 0 {
		fmt.Fprintf(w, "%-5s %s  %s / %s\n", "Swap",
			ui.RenderBar(latest.Swap.Percent, statsBarWidth),
			ui.FormatBytes(uint64(latest.Swap.Used)),
			ui.FormatBytes(uint64(latest.Swap.Total)))
	}
	if d := latest.Disk; d != nil {
		fmt.Fprintf(w, "%-5s %s  %s / %s  %s\n", "Disk",
			ui.RenderBar(d.Percent, statsBarWidth),
			ui.FormatBytes(d.Used), ui.FormatBytes(d.Total), d.Path)
	}

	renderNetwork(w, samples, latest.Network)
	if c := latest.Connections; c != nil {
		fmt.Fprintf(w, "%-5s tcp %d  udp %d\n", "Conn", c.Total.TCP, c.Total.UDP)
	}
}

func renderNetwork(w io.Writer, samples []telemetry.Sample, net telemetry.NetworkStats) {
	nic := net.Interface(net.DefaultNIC)
	if nic == nil {
		return
	}

	rx := make([]float64, 0, len(samples))
	for _, s := range samples {
		if i := s.Network.Interface(nic.Name); i != nil {
			rx = append(rx, i.RecvBps)
		}
	}

	fmt.Fprintf(w, "%-5s %s  rx %s  tx %s  %s\n", "Net", nic.Name,
		ui.FormatRate(nic.RecvBps), ui.FormatRate(nic.SentBps),
		ui.RenderSparkline(rx, statsSparkWidth))
}
