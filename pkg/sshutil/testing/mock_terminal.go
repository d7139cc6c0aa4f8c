package testing

import (
	"bytes"
	"io"
	"sync"
)

// Size is a pty geometry.
type Size struct {
	Cols int
	Rows int
}

// MockTerminal simulates a remote pty. Tests drive its output with Emit and
// Hangup and inspect what the bridge wrote with Input and Resizes.
type MockTerminal struct {
	mu        sync.Mutex
	input     bytes.Buffer
	size      Size
	resizes   []Size
	resizeErr error
	responder func(input []byte) []byte

	outR *io.PipeReader
	outW *io.PipeWriter

	closeOnce sync.Once
	closed    chan struct{}
}

// NewMockTerminal creates a terminal with the given initial geometry.
func NewMockTerminal(cols, rows int) *MockTerminal {
	r, w := io.Pipe()
	return &MockTerminal{
		size:   Size{Cols: cols, Rows: rows},
		outR:   r,
		outW:   w,
		closed: make(chan struct{}),
	}
}

// Read returns bytes passed to Emit, in order.
func (m *MockTerminal) Read(p []byte) (int, error) {
	return m.outR.Read(p)
}

// Write records input. When a responder is set, its reply is emitted as
// output, simulating a shell running the command.
func (m *MockTerminal) Write(p []byte) (int, error) {
	if m.IsClosed() {
		return 0, io.ErrClosedPipe
	}

	m.mu.Lock()
	m.input.Write(p)
	responder := m.responder
	m.mu.Unlock()

	if responder != nil {
		if reply := responder(append([]byte(nil), p...)); len(reply) > 0 {
			if _, err := m.outW.Write(reply); err != nil {
				return 0, err
			}
		}
	}
	return len(p), nil
}

// Resize records the new geometry, or fails with the error set by FailResize.
func (m *MockTerminal) Resize(cols, rows int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.resizeErr != nil {
		return m.resizeErr
	}
	m.size = Size{Cols: cols, Rows: rows}
	m.resizes = append(m.resizes, m.size)
	return nil
}

// Close releases the terminal. Pending reads return io.ErrClosedPipe.
func (m *MockTerminal) Close() error {
	m.closeOnce.Do(func() {
		close(m.closed)
		_ = m.outR.Close()
	})
	return nil
}

// Emit makes p available to Read. It blocks until the bytes are consumed.
func (m *MockTerminal) Emit(p []byte) error {
	_, err := m.outW.Write(p)
	return err
}

// Hangup simulates the remote shell exiting: Read returns io.EOF after any
// pending output.
func (m *MockTerminal) Hangup() {
	_ = m.outW.Close()
}

// FailReads makes Read return err, simulating a broken upstream connection.
func (m *MockTerminal) FailReads(err error) {
	_ = m.outW.CloseWithError(err)
}

// FailResize makes every later Resize return err.
func (m *MockTerminal) FailResize(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resizeErr = err
}

// Respond installs a function that turns each Write into output.
func (m *MockTerminal) Respond(fn func(input []byte) []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = fn
}

// Input returns everything written to the terminal so far.
func (m *MockTerminal) Input() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.input.Bytes()...)
}

// Size returns the current geometry.
func (m *MockTerminal) Size() Size {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Resizes returns every geometry applied through Resize, in order.
func (m *MockTerminal) Resizes() []Size {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Size(nil), m.resizes...)
}

// Done is closed when the terminal is closed.
func (m *MockTerminal) Done() <-chan struct{} {
	return m.closed
}

// IsClosed reports whether Close has been called.
func (m *MockTerminal) IsClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}
