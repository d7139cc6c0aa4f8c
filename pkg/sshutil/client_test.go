package sshutil

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	gssh "github.com/gliderlabs/ssh"
	"github.com/morezaGeek/Server-Monitor/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"
)

const (
	testUser     = "alice"
	testPassword = "s3cret"
)

// lineShell reports its pty, echoes each line as "out:<line>", reports
// window changes and exits on "exit".
func lineShell(s gssh.Session) {
	ptyReq, winCh, isPty := s.Pty()
	if !isPty {
		_, _ = io.WriteString(s, "no pty\n")
		_ = s.Exit(1)
		return
	}
	_, _ = fmt.Fprintf(s, "term=%s size=%dx%d\n", ptyReq.Term, ptyReq.Window.Width, ptyReq.Window.Height)

	go func() {
		for win := range winCh {
			_, _ = fmt.Fprintf(s, "window=%dx%d\n", win.Width, win.Height)
		}
	}()

	scanner := bufio.NewScanner(s)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "exit" {
			_, _ = io.WriteString(s, "bye\n")
			_ = s.Exit(0)
			return
		}
		_, _ = fmt.Fprintf(s.Stderr(), "out:%s\n", line)
	}
}

type serverOption func(*gssh.Server)

func keyboardInteractiveOnly() serverOption {
	return func(s *gssh.Server) {
		s.PasswordHandler = nil
		s.KeyboardInteractiveHandler = func(_ gssh.Context, challenge gossh.KeyboardInteractiveChallenge) bool {
			answers, err := challenge("", "", []string{"Password: "}, []bool{false})
			return err == nil && len(answers) == 1 && answers[0] == testPassword
		}
	}
}

func startServer(t *testing.T, opts ...serverOption) (string, int) {
	t.Helper()

	srv := &gssh.Server{
		Handler: lineShell,
		PasswordHandler: func(ctx gssh.Context, password string) bool {
			return ctx.User() == testUser && password == testPassword
		},
	}
	for _, opt := range opts {
		opt(srv)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Close() })

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

// collector drains a terminal in the background so tests can wait for output.
type collector struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	err  error
	done chan struct{}
}

func collect(r io.Reader) *collector {
	c := &collector{done: make(chan struct{})}
	go func() {
		defer close(c.done)
		chunk := make([]byte, 512)
		for {
			n, err := r.Read(chunk)
			c.mu.Lock()
			c.buf.Write(chunk[:n])
			if err != nil {
				c.err = err
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()
		}
	}()
	return c
}

func (c *collector) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func (c *collector) waitFor(t *testing.T, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(c.String(), want)
	}, 5*time.Second, 10*time.Millisecond, "never saw %q in output", want)
}

func (c *collector) waitDone(t *testing.T) error {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(5 * time.Second):
		t.Fatal("terminal output never ended")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func openTarget(host string, port int) Target {
	return Target{Host: host, Port: port, Username: testUser, Password: testPassword, Cols: 100, Rows: 30}
}

func TestDialer_OpenRelayAndResize(t *testing.T) {
	host, port := startServer(t)
	d := &Dialer{Timeout: 5 * time.Second, Term: "xterm-256color"}

	term, err := d.Open(context.Background(), openTarget(host, port))
	require.NoError(t, err)
	defer term.Close()

	out := collect(term)
	out.waitFor(t, "term=xterm-256color size=100x30")

	_, err = term.Write([]byte("ls\n"))
	require.NoError(t, err)
	out.waitFor(t, "out:ls")

	require.NoError(t, term.Resize(120, 40))
	out.waitFor(t, "window=120x40")

	_, err = term.Write([]byte("echo after-resize\n"))
	require.NoError(t, err)
	out.waitFor(t, "out:echo after-resize")

	// stdout and stderr arrive as one ordered stream
	text := out.String()
	assert.Less(t, strings.Index(text, "out:ls"), strings.Index(text, "out:echo after-resize"))
}

func TestDialer_ShellExitEndsStream(t *testing.T) {
	host, port := startServer(t)
	d := &Dialer{Timeout: 5 * time.Second}

	term, err := d.Open(context.Background(), openTarget(host, port))
	require.NoError(t, err)
	defer term.Close()

	out := collect(term)
	_, err = term.Write([]byte("exit\n"))
	require.NoError(t, err)

	assert.ErrorIs(t, out.waitDone(t), io.EOF)
	assert.Contains(t, out.String(), "bye")
}

func TestDialer_CloseUnblocksRead(t *testing.T) {
	host, port := startServer(t)
	d := &Dialer{Timeout: 5 * time.Second}

	term, err := d.Open(context.Background(), openTarget(host, port))
	require.NoError(t, err)

	out := collect(term)
	out.waitFor(t, "term=")

	require.NoError(t, term.Close())
	assert.Error(t, out.waitDone(t))
	assert.NoError(t, term.Close(), "second close is a no-op")
	assert.Error(t, term.Resize(10, 10))
}

func TestDialer_WrongPassword(t *testing.T) {
	host, port := startServer(t)
	d := &Dialer{Timeout: 5 * time.Second}

	target := openTarget(host, port)
	target.Password = "wrong"

	term, err := d.Open(context.Background(), target)
	require.Error(t, err)
	assert.Nil(t, term)
	assert.True(t, errors.IsCode(err, errors.ErrUpstreamAuth), "got %v", err)
	assert.Contains(t, err.Error(), "Authentication failed")
	assert.NotContains(t, err.Error(), "wrong", "the password never appears in errors")
}

func TestDialer_KeyboardInteractive(t *testing.T) {
	host, port := startServer(t, keyboardInteractiveOnly())
	d := &Dialer{Timeout: 5 * time.Second}

	term, err := d.Open(context.Background(), openTarget(host, port))
	require.NoError(t, err)
	defer term.Close()

	collect(term).waitFor(t, "term=xterm")
}

func TestDialer_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	d := &Dialer{Timeout: 2 * time.Second}
	_, err = d.Open(context.Background(), openTarget("127.0.0.1", port))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrUpstreamConnect), "got %v", err)
	assert.Contains(t, err.Error(), "SSH connection error")
}

func TestDialer_NotSSH(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_, _ = conn.Write([]byte("HTTP/1.1 400 Bad Request\r\n\r\n"))
			_ = conn.Close()
		}
	}()

	d := &Dialer{Timeout: 2 * time.Second}
	_, err = d.Open(context.Background(), openTarget("127.0.0.1", ln.Addr().(*net.TCPAddr).Port))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrUpstreamConnect), "got %v", err)
}

func TestDialer_CancelledContext(t *testing.T) {
	// A listener that accepts but never speaks SSH keeps the handshake pending.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()
	defer func() {
		select {
		case conn := <-accepted:
			_ = conn.Close()
		default:
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dialer{}

	errc := make(chan error, 1)
	go func() {
		_, err := d.Open(ctx, openTarget("127.0.0.1", ln.Addr().(*net.TCPAddr).Port))
		errc <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Open ignored context cancellation")
	}
}

func TestDialer_KeepaliveKeepsSessionOpen(t *testing.T) {
	host, port := startServer(t)
	d := &Dialer{Timeout: 5 * time.Second, KeepaliveInterval: 20 * time.Millisecond}

	term, err := d.Open(context.Background(), openTarget(host, port))
	require.NoError(t, err)
	defer term.Close()

	out := collect(term)
	time.Sleep(150 * time.Millisecond)

	_, err = term.Write([]byte("still-here\n"))
	require.NoError(t, err)
	out.waitFor(t, "out:still-here")
}

func TestTarget_String(t *testing.T) {
	assert.Equal(t, "root@10.0.0.5:22", Target{Host: "10.0.0.5", Username: "root", Password: "pw"}.String())
	assert.Equal(t, "root@[::1]:2222", Target{Host: "::1", Port: 2222, Username: "root"}.String())
}

func TestClassifyHandshakeError(t *testing.T) {
	target := Target{Host: "h", Username: "u"}

	tests := []struct {
		name string
		err  error
		code string
	}{
		{
			name: "rejected credentials",
			err:  fmt.Errorf("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none password], no supported methods remain"),
			code: errors.ErrUpstreamAuth,
		},
		{
			name: "connection reset",
			err:  fmt.Errorf("ssh: handshake failed: read tcp: connection reset by peer"),
			code: errors.ErrUpstreamConnect,
		},
		{
			name: "host key mismatch",
			err:  &HostKeyMismatchError{Hostname: "h:22", ReceivedType: "ssh-ed25519"},
			code: errors.ErrUpstreamConnect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyHandshakeError(tt.err, target, "h:22")
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

func TestSuggestionForDialError(t *testing.T) {
	assert.Contains(t, suggestionForDialError(fmt.Errorf("connect: connection refused")), "SSH running")
	assert.Contains(t, suggestionForDialError(fmt.Errorf("lookup nope: no such host")), "doesn't resolve")
	assert.Contains(t, suggestionForDialError(fmt.Errorf("dial tcp: i/o timeout")), "timed out")
	assert.Contains(t, suggestionForDialError(fmt.Errorf("something else")), "reachable")
}
