package sshutil

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/morezaGeek/Server-Monitor/internal/errors"
	"github.com/morezaGeek/Server-Monitor/internal/logger"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultTerm is the TERM requested for the remote pty when none is configured.
const DefaultTerm = "xterm"

// Dialer opens interactive shells over SSH with password authentication.
// The zero value is usable: no timeout beyond the context, TERM=xterm,
// host keys are not verified, no ssh_config lookup and no keepalive.
type Dialer struct {
	// Timeout bounds the TCP connect and the SSH handshake.
	Timeout time.Duration

	// Term is the TERM value sent with the pty request.
	Term string

	// HostKeyCallback verifies server host keys. Nil accepts any key.
	HostKeyCallback ssh.HostKeyCallback

	// ConfigFile is an optional ssh_config used to resolve host aliases.
	ConfigFile string

	// KeepaliveInterval, when positive, sends keepalive@openssh.com requests
	// and closes the terminal when the server stops answering.
	KeepaliveInterval time.Duration

	Logger logger.Logger
}

// matchWarningOnce ensures the ssh_config Match directive warning is only logged once per process.
var matchWarningOnce sync.Once

// Open dials the target, authenticates, requests a pty with the target's
// geometry and starts a login shell. Cancelling ctx at any point before Open
// returns closes the connection and makes Open fail.
func (d *Dialer) Open(ctx context.Context, t Target) (Terminal, error) {
	log := d.logger()

	settings := resolveHost(d.ConfigFile, t.Host, t.Port)
	if settings.matchLine > 0 && !settings.found {
		matchWarningOnce.Do(func() {
			log.Warn("host '%s' not found in %s (config has a Match block at line %d that may hide later entries)",
				t.Host, d.ConfigFile, settings.matchLine)
		})
	}
	address := net.JoinHostPort(settings.hostname, strconv.Itoa(settings.port))

	nd := net.Dialer{Timeout: d.Timeout}
	conn, err := nd.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrUpstreamConnect,
			fmt.Sprintf("SSH connection error: can't reach %s", address),
			suggestionForDialError(err))
	}

	// Closing the raw connection is the only way to interrupt a handshake
	// or a channel request that is already in progress.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	term, err := d.start(conn, address, t)
	if !stop() {
		if term != nil {
			_ = term.Close()
		}
		return nil, errors.WrapWithCode(ctx.Err(), errors.ErrUpstreamConnect,
			fmt.Sprintf("SSH connection error: connecting to %s was cancelled", address),
			"")
	}
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if d.KeepaliveInterval > 0 {
		go term.keepalive(d.KeepaliveInterval)
	}

	log.Debug("shell open on %s (%dx%d)", address, t.Cols, t.Rows)
	return term, nil
}

// start runs the SSH handshake and sets up the shell session on conn.
func (d *Dialer) start(conn net.Conn, address string, t Target) (*sshTerminal, error) {
	if d.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(d.Timeout))
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, d.clientConfig(t))
	if err != nil {
		return nil, classifyHandshakeError(err, t, address)
	}
	_ = conn.SetDeadline(time.Time{})

	client := ssh.NewClient(sshConn, chans, reqs)
	term, err := newTerminal(client, d.term(), t.Cols, t.Rows)
	if err != nil {
		_ = client.Close()
		return nil, errors.WrapWithCode(err, errors.ErrUpstreamConnect,
			fmt.Sprintf("SSH connection error: %s accepted the login but refused a shell", address),
			"Check the account has a login shell and that pty allocation is allowed")
	}
	return term, nil
}

func (d *Dialer) clientConfig(t Target) *ssh.ClientConfig {
	hostKeyCallback := d.HostKeyCallback
	if hostKeyCallback == nil {
		hostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // No known_hosts configured
	}

	password := t.Password
	return &ssh.ClientConfig{
		User: t.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			// Many servers only offer keyboard-interactive; answer every
			// prompt with the password.
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         d.Timeout,
	}
}

func (d *Dialer) term() string {
	if d.Term == "" {
		return DefaultTerm
	}
	return d.Term
}

func (d *Dialer) logger() logger.Logger {
	if d.Logger == nil {
		return logger.Noop()
	}
	return d.Logger
}

// classifyHandshakeError separates rejected credentials from everything else
// that can go wrong while setting up the SSH transport.
func classifyHandshakeError(err error, t Target, address string) error {
	var hostKeyErr *HostKeyMismatchError
	if stderrors.As(err, &hostKeyErr) {
		return errors.WrapWithCode(err, errors.ErrUpstreamConnect,
			"SSH connection error: "+hostKeyErr.Error(),
			hostKeyErr.Suggestion())
	}

	if isAuthFailure(err) {
		return errors.WrapWithCode(err, errors.ErrUpstreamAuth,
			fmt.Sprintf("Authentication failed for %s@%s", t.Username, address),
			"Check the username and password")
	}

	return errors.WrapWithCode(err, errors.ErrUpstreamConnect,
		fmt.Sprintf("SSH connection error: handshake with %s didn't go through", address),
		suggestionForHandshakeError(err))
}

func isAuthFailure(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "unable to authenticate") ||
		strings.Contains(errStr, "no supported methods remain")
}

func suggestionForDialError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") {
		return "Is SSH running on that box? Try: ssh <host>"
	}
	if strings.Contains(errStr, "no route to host") || strings.Contains(errStr, "network is unreachable") {
		return "Can't route to the host. Check the network between the dashboard and the target."
	}
	if strings.Contains(errStr, "no such host") {
		return "The hostname doesn't resolve. Check for typos or use an IP address."
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "i/o timeout") {
		return "Connection timed out. Host might be offline or blocked by a firewall."
	}
	return "Make sure the host is reachable: ping <host>"
}

func suggestionForHandshakeError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "host key") {
		return "Host key issue. Try connecting manually first: ssh <host>"
	}
	if strings.Contains(errStr, "EOF") || strings.Contains(errStr, "connection reset") {
		return "The server closed the connection during the handshake. Is this an SSH port?"
	}
	return "Something went wrong during SSH setup. Try: ssh <host>"
}

// HostKeyMismatchError provides helpful context when known_hosts verification fails.
type HostKeyMismatchError struct {
	Hostname     string
	ReceivedType string
	KnownHosts   string
	Want         []knownhosts.KnownKey
}

func (e *HostKeyMismatchError) Error() string {
	return fmt.Sprintf("host key mismatch for %s: server sent %s key", e.Hostname, e.ReceivedType)
}

// Suggestion returns actionable steps to fix the host key mismatch.
func (e *HostKeyMismatchError) Suggestion() string {
	host := e.Hostname
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	var wantTypes []string
	for _, k := range e.Want {
		wantTypes = append(wantTypes, k.Key.Type())
	}
	wantStr := "unknown"
	if len(wantTypes) > 0 {
		wantStr = strings.Join(wantTypes, ", ")
	}

	return fmt.Sprintf(
		"The server's host key doesn't match what's in known_hosts.\n"+
			"  Known types: %s\n"+
			"  Server sent: %s\n\n"+
			"  To update known_hosts with all key types:\n"+
			"    ssh-keyscan -t rsa,ecdsa,ed25519 %s >> %s\n\n"+
			"  Or remove the old entry:\n"+
			"    ssh-keygen -R %s",
		wantStr, e.ReceivedType, host, e.KnownHosts, host)
}

// HostKeyCallback builds the callback for the Dialer from the ssh config
// section. With no known_hosts file, any key is accepted. With a file, known
// hosts are verified; unknown hosts are accepted unless strict is set.
func HostKeyCallback(knownHostsPath string, strict bool) (ssh.HostKeyCallback, error) {
	if knownHostsPath == "" {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // No known_hosts configured
	}

	if _, err := os.Stat(knownHostsPath); os.IsNotExist(err) {
		if strict {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"known_hosts file not found: "+knownHostsPath,
				"Create it with ssh-keyscan, or turn off ssh.strict_host_key_checking")
		}
		dir := filepath.Dir(knownHostsPath)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create known_hosts directory: %w", err)
		}
		if err := os.WriteFile(knownHostsPath, []byte{}, 0o600); err != nil {
			return nil, fmt.Errorf("failed to create known_hosts: %w", err)
		}
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to load known_hosts: "+knownHostsPath,
			"Check the file is a valid OpenSSH known_hosts file")
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := callback(hostname, remote, key)
		if err == nil {
			return nil
		}
		var keyErr *knownhosts.KeyError
		if stderrors.As(err, &keyErr) {
			if len(keyErr.Want) > 0 {
				return &HostKeyMismatchError{
					Hostname:     hostname,
					ReceivedType: key.Type(),
					KnownHosts:   knownHostsPath,
					Want:         keyErr.Want,
				}
			}
			if !strict {
				return nil
			}
		}
		return err
	}, nil
}
