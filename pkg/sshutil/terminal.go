package sshutil

import (
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

const (
	defaultCols = 80
	defaultRows = 24
)

// sshTerminal is a login shell running in a remote pty.
type sshTerminal struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser

	// out carries stdout and stderr merged in the order the server sent them.
	out *io.PipeReader

	closeOnce sync.Once
	closed    chan struct{}
}

func newTerminal(client *ssh.Client, term string, cols, rows int) (*sshTerminal, error) {
	if cols <= 0 {
		cols = defaultCols
	}
	if rows <= 0 {
		rows = defaultRows
	}

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty(term, rows, cols, modes); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to request pty: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to get stdin: %w", err)
	}

	pr, pw := io.Pipe()
	session.Stdout = pw
	session.Stderr = pw

	if err := session.Shell(); err != nil {
		_ = session.Close()
		_ = pr.Close()
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}

	t := &sshTerminal{
		client:  client,
		session: session,
		stdin:   stdin,
		out:     pr,
		closed:  make(chan struct{}),
	}

	// Wait returns once the shell has exited and both output copies have
	// drained, so closing the pipe here delivers EOF after the last byte.
	go func() {
		_ = session.Wait()
		_ = pw.Close()
	}()

	return t, nil
}

func (t *sshTerminal) Read(p []byte) (int, error) {
	return t.out.Read(p)
}

func (t *sshTerminal) Write(p []byte) (int, error) {
	return t.stdin.Write(p)
}

// Resize sends a window-change request for the pty.
func (t *sshTerminal) Resize(cols, rows int) error {
	select {
	case <-t.closed:
		return io.ErrClosedPipe
	default:
	}
	return t.session.WindowChange(rows, cols)
}

// Close tears down the session and the connection. Blocked Reads return
// io.ErrClosedPipe; calls after the first are no-ops.
func (t *sshTerminal) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closed)
		_ = t.session.Close()
		err = t.client.Close()
		_ = t.out.Close()
	})
	return err
}

// keepalive pings the server until the terminal closes. A failed or
// unanswered ping closes the terminal, which ends the output stream.
func (t *sshTerminal) keepalive(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.closed:
			return
		case <-ticker.C:
		}

		// Use SendRequest with "keepalive@openssh.com" for a lightweight check.
		// Servers that don't know the request still reply (with false).
		errc := make(chan error, 1)
		go func() {
			_, _, err := t.client.SendRequest("keepalive@openssh.com", true, nil)
			errc <- err
		}()

		timer := time.NewTimer(interval)
		select {
		case err := <-errc:
			timer.Stop()
			if err != nil {
				_ = t.Close()
				return
			}
		case <-timer.C:
			_ = t.Close()
			return
		case <-t.closed:
			timer.Stop()
			return
		}
	}
}
