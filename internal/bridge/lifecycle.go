package bridge

import (
	stderrors "errors"

	"github.com/morezaGeek/Server-Monitor/internal/errors"
)

// errShutdown ends sessions when the server is going away.
var errShutdown = stderrors.New("server shutting down")

// fail ends the session with a Diagnostic describing err. Errors without a
// code are reported as fallback.
func (s *Session) fail(err error, fallback string) {
	if errors.CodeOf(err) == "" {
		err = errors.WrapWithCode(err, fallback, "Session failed", "")
	}
	s.terminate(err, true)
}

// terminate is the single teardown path. The first call wins; later calls
// return once teardown has finished. It moves the session to Closed, cancels
// any in-flight open, optionally sends a Diagnostic, then closes the pty and
// the browser connection.
func (s *Session) terminate(cause error, notify bool) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		prev := s.state
		s.state = Closed
		s.cause = cause
		term := s.term
		s.mu.Unlock()

		s.cancel()

		switch {
		case cause == nil:
			s.log.Info("closed (was %s)", prev)
		case cause == errShutdown:
			s.log.Info("closed by server shutdown (was %s)", prev)
		default:
			s.log.Warn("closed (was %s): %s", prev, errors.CodeOf(cause))
		}

		if notify && cause != nil {
			if err := s.conn.WriteControl(newErrorFrame(cause, errors.ErrProtocol)); err != nil {
				s.log.Debug("failed to send diagnostic: %v", err)
			}
		}

		if term != nil {
			if err := term.Close(); err != nil {
				s.log.Debug("closing remote terminal: %v", err)
			}
		}

		code, reason := closeStatus(cause)
		if err := s.conn.Close(code, reason); err != nil {
			s.log.Debug("closing browser connection: %v", err)
		}

		close(s.done)
	})
	<-s.done
}

// wait blocks until teardown is done and both relay goroutines have exited.
func (s *Session) wait() error {
	<-s.done
	s.wg.Wait()

	if err := s.Err(); err != errShutdown {
		return err
	}
	return nil
}

// closeStatus picks the WebSocket close code for a termination cause.
func closeStatus(cause error) (int, string) {
	if cause == nil {
		return CloseNormal, "session closed"
	}
	if cause == errShutdown {
		return CloseGoingAway, "server shutting down"
	}

	code := errors.CodeOf(cause)
	switch code {
	case errors.ErrProtocol, errors.ErrAuthInput:
		return ClosePolicyViolation, errors.WireCode(code)
	case "":
		return CloseInternalError, "internal error"
	default:
		return CloseInternalError, errors.WireCode(code)
	}
}
