//go:build !windows

package cli

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// watchResize reports the terminal geometry on every SIGWINCH until ctx ends.
func watchResize(ctx context.Context, fd int) <-chan termSize {
	if !term.IsTerminal(fd) {
		return nil
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, unix.SIGWINCH)

	sizes := make(chan termSize, 1)
	go func() {
		defer signal.Stop(sig)
		defer close(sizes)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				cols, rows, err := term.GetSize(fd)
				if err != nil {
					continue
				}
				select {
				case sizes <- termSize{Cols: cols, Rows: rows}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return sizes
}
