package bridge

import (
	"github.com/morezaGeek/Server-Monitor/internal/errors"
	"github.com/morezaGeek/Server-Monitor/pkg/sshutil"
)

// resize applies a new geometry to the pty. Resizes before streaming are
// dropped and a resize to the current geometry is a no-op. It returns false
// once the session is terminating.
//
// Only the inbound goroutine calls resize, so geometry updates are applied in
// frame order.
func (s *Session) resize(cols, rows int) bool {
	s.mu.Lock()
	if s.state != Streaming {
		s.mu.Unlock()
		s.log.Debug("dropping resize to %dx%d before streaming", cols, rows)
		return true
	}
	if cols == s.cols && rows == s.rows {
		s.mu.Unlock()
		return true
	}
	term := s.term
	s.mu.Unlock()

	if err := term.Resize(cols, rows); err != nil {
		s.terminate(errors.WrapWithCode(err, errors.ErrStreamIO, "Failed to resize remote terminal", ""), false)
		return false
	}

	s.mu.Lock()
	s.cols, s.rows = cols, rows
	s.mu.Unlock()

	s.log.Debug("resized to %dx%d", cols, rows)
	return true
}

// streamingTerminal returns the pty while streaming, else nil.
func (s *Session) streamingTerminal() sshutil.Terminal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Streaming {
		return nil
	}
	return s.term
}
