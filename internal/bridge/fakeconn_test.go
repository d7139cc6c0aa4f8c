package bridge

import (
	"encoding/json"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errConnGone = stderrors.New("connection gone")

type inboundMsg struct {
	mt   MessageType
	data []byte
}

// event is one thing the session did to the browser connection, in order.
type event struct {
	kind string // "output", "control" or "close"
	data []byte
	code int
}

// fakeConn is an in-memory browser connection.
type fakeConn struct {
	in chan inboundMsg

	mu     sync.Mutex
	events []event

	closeOnce sync.Once
	closed    chan struct{} // server closed the connection
	goneOnce  sync.Once
	gone      chan struct{} // browser went away
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan inboundMsg, 64),
		closed: make(chan struct{}),
		gone:   make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (MessageType, []byte, error) {
	select {
	case m := <-c.in:
		return m.mt, m.data, nil
	case <-c.closed:
		return 0, nil, errConnGone
	case <-c.gone:
		return 0, nil, errConnGone
	}
}

func (c *fakeConn) WriteOutput(p []byte) error {
	return c.record(event{kind: "output", data: append([]byte(nil), p...)})
}

func (c *fakeConn) WriteControl(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.record(event{kind: "control", data: data})
}

func (c *fakeConn) record(e event) error {
	select {
	case <-c.closed:
		return errConnGone
	case <-c.gone:
		return errConnGone
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *fakeConn) Close(code int, reason string) error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.events = append(c.events, event{kind: "close", code: code, data: []byte(reason)})
		c.mu.Unlock()
		close(c.closed)
	})
	return nil
}

// browserClose simulates the user closing the tab.
func (c *fakeConn) browserClose() {
	c.goneOnce.Do(func() { close(c.gone) })
}

func (c *fakeConn) sendText(s string) {
	c.in <- inboundMsg{mt: TextMessage, data: []byte(s)}
}

func (c *fakeConn) sendBinary(p []byte) {
	c.in <- inboundMsg{mt: BinaryMessage, data: p}
}

func (c *fakeConn) sendJSON(t *testing.T, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	c.in <- inboundMsg{mt: TextMessage, data: data}
}

func (c *fakeConn) snapshot() []event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event(nil), c.events...)
}

func (c *fakeConn) output() string {
	var b strings.Builder
	for _, e := range c.snapshot() {
		if e.kind == "output" {
			b.Write(e.data)
		}
	}
	return b.String()
}

func (c *fakeConn) controls(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, e := range c.snapshot() {
		if e.kind != "control" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(e.data, &m))
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) errorFrames(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, m := range c.controls(t) {
		if m["type"] == TypeError {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeConn) closeCode() int {
	for _, e := range c.snapshot() {
		if e.kind == "close" {
			return e.code
		}
	}
	return 0
}

func (c *fakeConn) waitReady(t *testing.T) map[string]any {
	t.Helper()
	var ready map[string]any
	require.Eventually(t, func() bool {
		for _, m := range c.controls(t) {
			if m["type"] == TypeReady {
				ready = m
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond, "session never became ready")
	return ready
}

func (c *fakeConn) waitOutput(t *testing.T, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(c.output(), want)
	}, 2*time.Second, 5*time.Millisecond, "never saw %q in output", want)
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
