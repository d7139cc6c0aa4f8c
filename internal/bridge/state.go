package bridge

// State is the position of a session in its lifecycle. States only move
// forward, one step at a time, except that any state may jump to Closed.
type State int

const (
	Init State = iota
	AwaitingAuth
	Connecting
	Streaming
	Closed
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case AwaitingAuth:
		return "awaiting_auth"
	case Connecting:
		return "connecting"
	case Streaming:
		return "streaming"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// canTransition reports whether s -> to is an edge of the state machine.
func (s State) canTransition(to State) bool {
	if s == Closed {
		return false
	}
	if to == Closed {
		return true
	}
	return to == s+1
}
