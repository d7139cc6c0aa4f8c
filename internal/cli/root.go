package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/morezaGeek/Server-Monitor/internal/errors"
	"github.com/morezaGeek/Server-Monitor/internal/logger"
	"github.com/morezaGeek/Server-Monitor/internal/ui"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitError   = 1
	ExitUsage   = 2
	ExitSession = 3
)

// Global flags
var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "servermon",
	Short: "Server dashboard with live stats and a browser terminal",
	Long: `servermon serves a dashboard for a single Linux host: live resource
telemetry and an interactive SSH terminal that runs in the browser.

Get started:
  servermon config init     Create a config with dashboard credentials
  servermon serve           Start the dashboard
  servermon attach u@host   Open a terminal through a running dashboard`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			_ = os.Setenv(logger.DebugEnv, "1")
		}
		if noColor || os.Getenv("NO_COLOR") != "" {
			ui.DisableColors()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./servermon.yaml, then ~/.config/servermon/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command and exits with a non-zero code on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(reportError(os.Stderr, err))
	}
}

// reportError prints err for a terminal and returns the exit code.
func reportError(w io.Writer, err error) int {
	if isUnknownCommandError(err) {
		fmt.Fprintf(w, "%s %v\n\nRun 'servermon --help' for usage.\n", ui.SymbolFail, err)
		return ExitUsage
	}

	var smErr *errors.Error
	if stderrors.As(err, &smErr) {
		fmt.Fprint(w, smErr.Error())
		switch smErr.Code {
		case errors.ErrAuthInput, errors.ErrUpstreamConnect, errors.ErrUpstreamAuth,
			errors.ErrStreamIO, errors.ErrProtocol, errors.ErrTimeout:
			return ExitSession
		}
		return ExitError
	}

	fmt.Fprintf(w, "%s %v\n", ui.SymbolFail, err)
	return ExitError
}

// isUnknownCommandError reports whether cobra rejected the command line.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}
