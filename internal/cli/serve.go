package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/morezaGeek/Server-Monitor/internal/config"
	"github.com/morezaGeek/Server-Monitor/internal/logger"
	"github.com/morezaGeek/Server-Monitor/internal/server"
	"github.com/morezaGeek/Server-Monitor/internal/ui"
	"github.com/spf13/cobra"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the dashboard: telemetry API, browser terminal and static front end.

The server runs until interrupted. On SIGINT or SIGTERM open terminal
sessions are closed with a going-away status and in-flight requests are
drained, bounded by server.shutdown_timeout.

Examples:
  servermon serve
  servermon serve --listen 127.0.0.1:9000
  SERVERMON_SERVER_LISTEN=:80 servermon serve`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCommand(cmd)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides server.listen)")
	rootCmd.AddCommand(serveCmd)
}

func serveCommand(cmd *cobra.Command) error {
	cfg, path, err := loadServeConfig(cfgFile, serveListen)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.ErrOrStderr(), ui.RenderHeader(serveHeader(cfg, path)))
	if !cfg.Dashboard.GateEnabled() {
		ui.PrintWarning("No dashboard credentials set; anyone who can reach " + cfg.Server.Listen + " gets a shell prompt")
	}

	srv, err := server.New(cfg, server.Options{
		Logger:  logger.NewEnvLogger("[servermon]"),
		Version: formatVersion(version),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

// loadServeConfig loads, overrides and validates the config.
func loadServeConfig(explicit, listen string) (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(explicit)
	if err != nil {
		return nil, "", err
	}
	if listen != "" {
		cfg.Server.Listen = listen
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func serveHeader(cfg *config.Config, path string) ui.HeaderInfo {
	if path == "" {
		path = "built-in defaults"
	}

	gate := ui.Field{Label: "access gate", Value: "user " + cfg.Dashboard.Username}
	if !cfg.Dashboard.GateEnabled() {
		gate = ui.Field{Label: "access gate", Value: "disabled", Warn: true}
	}

	telemetry := ui.Field{Label: "telemetry", Value: "every " + cfg.Telemetry.Interval.String()}
	if !cfg.Telemetry.Enabled {
		telemetry.Value = "disabled"
	}

	hostKeys := ui.Field{Label: "host keys", Value: "not verified", Warn: true}
	if cfg.SSH.KnownHosts != "" {
		mode := "known hosts"
		if cfg.SSH.StrictHostKeyChecking {
			mode = "strict"
		}
		hostKeys = ui.Field{Label: "host keys", Value: mode + " (" + cfg.SSH.KnownHosts + ")"}
	}

	fields := []ui.Field{
		{Label: "listen", Value: cfg.Server.Listen},
		{Label: "config", Value: path},
		gate,
		telemetry,
		hostKeys,
	}
	if cfg.Server.StaticDir != "" {
		fields = append(fields, ui.Field{Label: "static", Value: cfg.Server.StaticDir})
	}

	return ui.HeaderInfo{
		Version: formatVersion(version),
		Tagline: "dashboard and browser terminal",
		Fields:  fields,
	}
}
