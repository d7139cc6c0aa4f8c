// Package cli implements the servermon command-line interface.
//
// # Command Structure
//
// The root command is "servermon" with subcommands:
//
//	servermon serve                 - Run the dashboard server
//	servermon attach user@host      - Terminal session through a running dashboard
//	servermon stats                 - Print telemetry from a running dashboard
//	servermon watch [url...]        - Live view of one or more dashboards
//	servermon config init           - Create servermon.yaml with dashboard credentials
//	servermon config show           - Print the effective config
//	servermon version               - Build information
//	servermon completion <shell>    - Shell completion scripts
//
// # Flag Handling
//
// Global flags (--config, --verbose, --no-color) are defined on the root
// command. --verbose sets SERVERMON_DEBUG so every logger built from the
// environment emits debug lines.
//
// # Errors
//
// Commands return *errors.Error values where they can. Execute prints them
// in the multi-line form and maps session failures (upstream, protocol,
// timeout) to exit code 3 so scripts can tell them apart from local
// configuration problems.
package cli
