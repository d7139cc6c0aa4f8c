package cli

import "context"

// watchResize is a no-op on Windows, which has no SIGWINCH.
func watchResize(ctx context.Context, fd int) <-chan termSize {
	return nil
}
