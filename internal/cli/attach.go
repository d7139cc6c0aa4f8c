package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/morezaGeek/Server-Monitor/internal/errors"
	"github.com/morezaGeek/Server-Monitor/internal/monitor"
	"github.com/morezaGeek/Server-Monitor/internal/ui"
	"github.com/morezaGeek/Server-Monitor/pkg/sshutil"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Environment variables read by attach so secrets stay off the command line.
const (
	EnvDashboardPassword = monitor.EnvDashboardPassword
	EnvSSHPassword       = "SERVERMON_SSH_PASSWORD"
)

const defaultAttachURL = "ws://localhost:8080/api/ssh"

var (
	attachURL  string
	attachUser string
)

var attachCmd = &cobra.Command{
	Use:   "attach user@host[:port]",
	Short: "Open a remote shell through a running dashboard",
	Long: `Open an interactive shell through a running dashboard, the same way
the browser terminal does. Useful for checking the gateway end to end.

The SSH password is read from SERVERMON_SSH_PASSWORD or prompted for.
The dashboard password is read from SERVERMON_DASHBOARD_PASSWORD or
prompted for when --user is given.

Examples:
  servermon attach root@10.0.0.5
  servermon attach deploy@web-1:2222 --url wss://dash.example.com/api/ssh --user admin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return attachCommand(cmd.Context(), args[0])
	},
}

func init() {
	attachCmd.Flags().StringVar(&attachURL, "url", defaultAttachURL, "terminal endpoint of the dashboard")
	attachCmd.Flags().StringVarP(&attachUser, "user", "u", "", "dashboard username")
	rootCmd.AddCommand(attachCmd)
}

// parseTarget splits user@host[:port]. A bracketed IPv6 host is accepted.
func parseTarget(s string) (sshutil.Target, error) {
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return sshutil.Target{}, errors.New(errors.ErrAuthInput,
			fmt.Sprintf("Invalid target %q", s),
			"Use user@host or user@host:port")
	}
	t := sshutil.Target{Username: s[:at]}
	hostPort := s[at+1:]

	host, portStr := hostPort, ""
	if strings.HasPrefix(hostPort, "[") {
		end := strings.Index(hostPort, "]")
		if end < 0 {
			return sshutil.Target{}, errors.New(errors.ErrAuthInput,
				fmt.Sprintf("Invalid target %q", s),
				"Close the IPv6 address with ']'")
		}
		host = hostPort[1:end]
		portStr = strings.TrimPrefix(hostPort[end+1:], ":")
	} else if i := strings.LastIndex(hostPort, ":"); i >= 0 && strings.Count(hostPort, ":") == 1 {
		host, portStr = hostPort[:i], hostPort[i+1:]
	}

	if host == "" {
		return sshutil.Target{}, errors.New(errors.ErrAuthInput,
			fmt.Sprintf("Invalid target %q", s),
			"Use user@host or user@host:port")
	}
	t.Host = host

	if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			return sshutil.Target{}, errors.New(errors.ErrAuthInput,
				fmt.Sprintf("Invalid port %q", portStr),
				"Ports range from 1 to 65535")
		}
		t.Port = port
	}
	return t, nil
}

func attachCommand(ctx context.Context, target string) error {
	t, err := parseTarget(target)
	if err != nil {
		return err
	}

	stdinFd := int(os.Stdin.Fd())
	interactive := term.IsTerminal(stdinFd)

	dashPassword := os.Getenv(EnvDashboardPassword)
	if attachUser != "" && dashPassword == "" {
		if dashPassword, err = promptSecret(stdinFd, interactive, "Dashboard password for "+attachUser+": "); err != nil {
			return err
		}
	}

	t.Password = os.Getenv(EnvSSHPassword)
	if t.Password == "" {
		if t.Password, err = promptSecret(stdinFd, interactive, t.String()+"'s password: "); err != nil {
			return err
		}
	}

	if interactive {
		if cols, rows, err := term.GetSize(stdinFd); err == nil {
			t.Cols, t.Rows = cols, rows
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	spinner := ui.NewSpinner(os.Stderr, "Connecting to "+t.String())
	spinner.Start()

	client, err := dialAttach(ctx, attachURL, attachUser, dashPassword)
	if err != nil {
		spinner.Fail()
		return err
	}
	defer client.Close()

	if _, err := client.handshake(ctx, t); err != nil {
		spinner.SetLabel("Session failed: " + t.String())
		spinner.Fail()
		return err
	}
	spinner.Success()

	if interactive {
		state, err := term.MakeRaw(stdinFd)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrStreamIO,
				"Failed to put the terminal in raw mode", "")
		}
		defer func() { _ = term.Restore(stdinFd, state) }()
	}

	return client.stream(ctx, os.Stdin, os.Stdout, watchResize(ctx, stdinFd))
}

func promptSecret(fd int, interactive bool, prompt string) (string, error) {
	if !interactive {
		return "", errors.New(errors.ErrAuthInput,
			"No terminal to prompt for a password",
			"Set "+EnvSSHPassword+" and "+EnvDashboardPassword+" instead")
	}
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrAuthInput, "Failed to read password", "")
	}
	return string(pw), nil
}
