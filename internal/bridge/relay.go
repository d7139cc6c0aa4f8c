package bridge

import (
	stderrors "errors"
	"io"

	"github.com/morezaGeek/Server-Monitor/internal/errors"
)

// inbound copies browser messages to the pty until the connection ends.
// It runs from the end of the auth frame until teardown.
func (s *Session) inbound() {
	defer s.wg.Done()

	for {
		mt, msg, err := s.conn.ReadMessage()
		if err != nil {
			s.log.Debug("browser connection ended: %v", err)
			s.terminate(nil, false)
			return
		}

		if mt != TextMessage {
			s.log.Debug("dropping binary message (%d bytes)", len(msg))
			continue
		}

		frame, err := DecodeFrame(msg)
		if err != nil {
			if PeekType(msg) == TypeAuth {
				s.rejectReauth()
				return
			}
			s.log.Debug("dropping malformed frame: %s", errors.CodeOf(err))
			continue
		}

		switch f := frame.(type) {
		case AuthFrame:
			s.rejectReauth()
			return
		case DataFrame:
			if !s.writeInput(f.Data) {
				return
			}
		case ResizeFrame:
			if !s.resize(f.Cols, f.Rows) {
				return
			}
		}
	}
}

// rejectReauth ends the session on any auth frame after the handshake,
// whether or not the frame itself is valid.
func (s *Session) rejectReauth() {
	s.fail(errors.New(errors.ErrProtocol,
		"Session is already authenticated",
		"Open a new session to connect somewhere else"), errors.ErrProtocol)
}

// writeInput forwards keystrokes to the pty. Input before streaming is
// dropped. It returns false once the session is terminating.
func (s *Session) writeInput(p []byte) bool {
	term := s.streamingTerminal()
	if term == nil {
		s.log.Debug("dropping %d bytes of input before streaming", len(p))
		return true
	}
	if len(p) == 0 {
		return true
	}

	if _, err := term.Write(p); err != nil {
		s.terminate(errors.WrapWithCode(err, errors.ErrStreamIO, "Failed to write to remote terminal", ""), false)
		return false
	}
	return true
}

// outbound copies pty output to the browser until the shell ends or the
// connection fails. Each read becomes one binary message, so output is
// delivered in order with no buffering beyond a single read.
func (s *Session) outbound(term io.Reader) {
	defer s.wg.Done()

	buf := make([]byte, s.opts.ReadBuffer)
	for {
		n, err := term.Read(buf)
		if n > 0 {
			if werr := s.conn.WriteOutput(buf[:n]); werr != nil {
				s.log.Debug("browser write failed: %v", werr)
				s.terminate(nil, false)
				return
			}
		}
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				s.log.Debug("remote shell exited")
				s.terminate(nil, false)
			} else {
				s.terminate(errors.WrapWithCode(err, errors.ErrStreamIO, "Failed to read from remote terminal", ""), false)
			}
			return
		}
	}
}
