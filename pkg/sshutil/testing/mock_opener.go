package testing

import (
	"context"
	"sync"

	"github.com/morezaGeek/Server-Monitor/pkg/sshutil"
)

// MockOpener is an in-memory sshutil.Opener. By default every Open succeeds
// with a fresh MockTerminal sized to the target's geometry.
type MockOpener struct {
	mu        sync.Mutex
	err       error
	gate      <-chan struct{}
	ignoreCtx bool
	echo      bool
	targets   []sshutil.Target
	terminals []*MockTerminal
	opened    chan *MockTerminal
}

// NewMockOpener creates an opener whose Opens succeed.
func NewMockOpener() *MockOpener {
	return &MockOpener{opened: make(chan *MockTerminal, 16)}
}

// FailWith makes every later Open fail with err.
func (m *MockOpener) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Gate makes Open wait until release is closed. While waiting, a cancelled
// context aborts the open unless ignoreCtx is set, in which case Open still
// returns a terminal after release (a handle that arrives too late).
func (m *MockOpener) Gate(release <-chan struct{}, ignoreCtx bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = release
	m.ignoreCtx = ignoreCtx
}

// Echo makes opened terminals echo their input back as output.
func (m *MockOpener) Echo() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.echo = true
}

// Open implements sshutil.Opener.
func (m *MockOpener) Open(ctx context.Context, t sshutil.Target) (sshutil.Terminal, error) {
	m.mu.Lock()
	m.targets = append(m.targets, t)
	gate, ignoreCtx, err, echo := m.gate, m.ignoreCtx, m.err, m.echo
	m.mu.Unlock()

	if gate != nil {
		if ignoreCtx {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if err != nil {
		return nil, err
	}

	term := NewMockTerminal(t.Cols, t.Rows)
	if echo {
		term.Respond(func(in []byte) []byte { return in })
	}

	m.mu.Lock()
	m.terminals = append(m.terminals, term)
	m.mu.Unlock()

	select {
	case m.opened <- term:
	default:
	}
	return term, nil
}

// Calls returns how many times Open was invoked.
func (m *MockOpener) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.targets)
}

// Targets returns the targets passed to Open, in order.
func (m *MockOpener) Targets() []sshutil.Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sshutil.Target(nil), m.targets...)
}

// Terminals returns every terminal handed out so far.
func (m *MockOpener) Terminals() []*MockTerminal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockTerminal(nil), m.terminals...)
}

// Opened delivers each terminal as Open returns it.
func (m *MockOpener) Opened() <-chan *MockTerminal {
	return m.opened
}
