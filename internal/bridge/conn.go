package bridge

// MessageType distinguishes text and binary messages on the browser connection.
type MessageType int

const (
	TextMessage MessageType = iota + 1
	BinaryMessage
)

// Close status codes (RFC 6455 section 7.4.1) used when ending a session.
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	ClosePolicyViolation = 1008
	CloseInternalError   = 1011
)

// Conn is the browser side of a session: one duplex, message-oriented
// connection. The gateway adapts a WebSocket to it.
//
// ReadMessage is only called from one goroutine at a time. WriteOutput and
// WriteControl may be called concurrently and must not interleave. Close must
// unblock a pending ReadMessage and is called exactly once per session.
type Conn interface {
	ReadMessage() (MessageType, []byte, error)

	// WriteOutput sends raw terminal bytes as one binary message.
	WriteOutput(p []byte) error

	// WriteControl sends v encoded as a JSON text message.
	WriteControl(v any) error

	Close(code int, reason string) error
}
