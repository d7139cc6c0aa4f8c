package testing

import (
	"fmt"

	"github.com/morezaGeek/Server-Monitor/internal/errors"
)

// AuthRejected returns the error the real Dialer produces when the server
// rejects the credentials.
func AuthRejected(user, host string) error {
	return errors.WrapWithCode(
		fmt.Errorf("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none password], no supported methods remain"),
		errors.ErrUpstreamAuth,
		fmt.Sprintf("Authentication failed for %s@%s:22", user, host),
		"Check the username and password")
}

// Unreachable returns the error the real Dialer produces when the TCP
// connection can't be established.
func Unreachable(host string) error {
	return errors.WrapWithCode(
		fmt.Errorf("dial tcp %s:22: connect: connection refused", host),
		errors.ErrUpstreamConnect,
		fmt.Sprintf("SSH connection error: can't reach %s:22", host),
		"Is SSH running on that box? Try: ssh <host>")
}
