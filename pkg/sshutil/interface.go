package sshutil

import (
	"context"
	"io"
	"net"
	"strconv"
)

// DefaultPort is used when neither the target nor ssh_config name a port.
const DefaultPort = 22

// Target describes the remote shell a browser session asks for.
// Password is held only for the duration of Open and is never logged.
type Target struct {
	Host     string
	Port     int // 0 means "resolve from ssh_config, else 22"
	Username string
	Password string
	Cols     int
	Rows     int
}

// String returns user@host:port for logging. The password is never included.
func (t Target) String() string {
	port := t.Port
	if port == 0 {
		port = DefaultPort
	}
	return t.Username + "@" + net.JoinHostPort(t.Host, strconv.Itoa(port))
}

// Opener opens interactive remote shells. The real implementation is Dialer;
// tests use the fake in pkg/sshutil/testing.
//
// Open blocks until the shell is running or fails. Cancelling ctx aborts an
// in-flight open. Failures are *errors.Error values coded UPSTREAM_CONNECT or
// UPSTREAM_AUTH.
type Opener interface {
	Open(ctx context.Context, t Target) (Terminal, error)
}

// Terminal is an open remote pseudo-terminal.
//
// Read returns the merged stdout/stderr byte stream and io.EOF once the shell
// exits. Write feeds the shell's stdin. Resize applies a new geometry
// out of band from the byte stream. Close releases the pty and the connection
// and is safe to call more than once.
type Terminal interface {
	io.ReadWriteCloser
	Resize(cols, rows int) error
}
