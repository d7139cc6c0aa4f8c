package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/morezaGeek/Server-Monitor/internal/monitor"
	"github.com/spf13/cobra"
)

var (
	watchUser     string
	watchInterval time.Duration
	watchLimit    int
)

var watchCmd = &cobra.Command{
	Use:   "watch [url...]",
	Short: "Live view of one or more dashboards",
	Long: `Show a live, refreshing view of the telemetry of one or more running
dashboards. Without arguments the local dashboard is watched.

Every dashboard is polled with the same --user; the password is read from
SERVERMON_DASHBOARD_PASSWORD.

Examples:
  servermon watch
  servermon watch http://web-1:8080 http://web-2:8080 --user admin
  servermon watch --interval 2s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		urls := args
		if len(urls) == 0 {
			urls = []string{defaultStatsURL}
		}

		password := os.Getenv(EnvDashboardPassword)
		dashboards := make([]monitor.Dashboard, len(urls))
		for i, u := range urls {
			dashboards[i] = monitor.Dashboard{URL: u, User: watchUser, Password: password}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return monitor.Run(ctx, dashboards, monitor.Options{
			Interval: watchInterval,
			Limit:    watchLimit,
		})
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchUser, "user", "u", "", "dashboard username")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "refresh interval")
	watchCmd.Flags().IntVar(&watchLimit, "limit", 60, "samples fetched per dashboard")
	rootCmd.AddCommand(watchCmd)
}
