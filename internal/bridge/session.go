package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/morezaGeek/Server-Monitor/internal/errors"
	"github.com/morezaGeek/Server-Monitor/internal/logger"
	"github.com/morezaGeek/Server-Monitor/pkg/sshutil"
)

// Default session settings, used when Options leaves a field at zero.
const (
	DefaultCols       = 80
	DefaultRows       = 24
	DefaultReadBuffer = 4096
)

// Options tunes a session.
type Options struct {
	// HandshakeTimeout bounds the time from Run to a streaming shell. Zero disables it.
	HandshakeTimeout time.Duration

	// DefaultCols and DefaultRows size the pty when the auth frame doesn't.
	DefaultCols int
	DefaultRows int

	// ReadBuffer is the largest chunk read from the pty per output message.
	ReadBuffer int

	Logger logger.Logger
}

func (o Options) withDefaults() Options {
	if o.DefaultCols <= 0 {
		o.DefaultCols = DefaultCols
	}
	if o.DefaultRows <= 0 {
		o.DefaultRows = DefaultRows
	}
	if o.ReadBuffer <= 0 {
		o.ReadBuffer = DefaultReadBuffer
	}
	return o
}

// Session bridges one browser connection to one remote shell.
//
// The first inbound message must be an auth frame. Once the shell is open,
// one goroutine copies browser input to the pty and another copies pty output
// to the browser, until either side ends. Every way a session can end runs
// through terminate, which closes both sides exactly once.
type Session struct {
	id     string
	conn   Conn
	opener sshutil.Opener
	opts   Options
	log    logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state State
	term  sshutil.Terminal
	cols  int
	rows  int
	cause error

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// New creates a session for conn. Nothing happens until Run.
func New(id string, conn Conn, opener sshutil.Opener, opts Options) *Session {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:     id,
		conn:   conn,
		opener: opener,
		opts:   opts,
		log:    logger.WithPrefix(opts.Logger, "[session "+id+"]"),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Geometry returns the last geometry applied to the remote pty, or zeros
// before the shell is open.
func (s *Session) Geometry() (cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols, s.rows
}

// Err returns why the session ended: nil for a normal end (either side
// closed cleanly), otherwise the failure. Only meaningful after Done.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cause
}

// Done is closed once teardown has finished.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Run drives the session to completion and returns Err. Cancelling ctx ends
// the session with a going-away close.
func (s *Session) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.terminate(errShutdown, false) })
	defer stop()

	if !s.transition(AwaitingAuth) {
		return s.wait()
	}

	var timer *time.Timer
	if s.opts.HandshakeTimeout > 0 {
		timer = time.AfterFunc(s.opts.HandshakeTimeout, s.handshakeExpired)
	}

	term, ok := s.handshake()
	if !ok {
		return s.wait()
	}

	if timer != nil && !timer.Stop() {
		// The timeout fired while the shell was opening.
		_ = term.Close()
		return s.wait()
	}

	if !s.startStreaming(term) {
		return s.wait()
	}

	s.wg.Add(1)
	go s.outbound(term)

	return s.wait()
}

// handshake reads the auth frame and opens the remote shell. On success the
// inbound relay is already running. On failure the session is terminating.
func (s *Session) handshake() (sshutil.Terminal, bool) {
	auth, ok := s.readAuth()
	if !ok {
		return nil, false
	}

	if !s.transition(Connecting) {
		return nil, false
	}

	// Reading continues while the shell opens so a browser close cancels the
	// open; data and resize frames in this window are dropped.
	s.wg.Add(1)
	go s.inbound()

	target := sshutil.Target{
		Host:     auth.Host,
		Port:     auth.Port,
		Username: auth.Username,
		Password: auth.Password,
		Cols:     auth.Cols,
		Rows:     auth.Rows,
	}
	if target.Cols == 0 {
		target.Cols, target.Rows = s.opts.DefaultCols, s.opts.DefaultRows
	}
	s.log.Info("connecting to %s", target)

	term, err := s.opener.Open(s.ctx, target)
	target.Password = ""
	if err != nil {
		if s.ctx.Err() != nil {
			// Teardown started while the shell was opening; its cause wins.
			return nil, false
		}
		s.log.Warn("connect to %s failed: %s", target, errors.CodeOf(err))
		s.fail(err, errors.ErrUpstreamConnect)
		return nil, false
	}

	s.mu.Lock()
	s.cols, s.rows = target.Cols, target.Rows
	s.mu.Unlock()

	return term, true
}

// readAuth consumes the first message, which must be a valid auth frame.
func (s *Session) readAuth() (AuthFrame, bool) {
	mt, msg, err := s.conn.ReadMessage()
	if err != nil {
		s.log.Debug("connection ended before auth: %v", err)
		s.terminate(nil, false)
		return AuthFrame{}, false
	}

	if mt != TextMessage {
		s.fail(errors.New(errors.ErrProtocol,
			"Expected an auth frame first, got a binary message",
			"Send the auth frame as JSON text"), errors.ErrProtocol)
		return AuthFrame{}, false
	}

	frame, err := DecodeFrame(msg)
	if err != nil {
		s.fail(err, errors.ErrProtocol)
		return AuthFrame{}, false
	}

	auth, ok := frame.(AuthFrame)
	if !ok {
		s.fail(errors.New(errors.ErrProtocol,
			"Expected an auth frame first, got "+frame.frameType(),
			"Authenticate before sending terminal input"), errors.ErrProtocol)
		return AuthFrame{}, false
	}
	return auth, true
}

// startStreaming installs term as the session's shell. If teardown has
// already begun, term is closed instead.
func (s *Session) startStreaming(term sshutil.Terminal) bool {
	s.mu.Lock()
	if !s.state.canTransition(Streaming) {
		s.mu.Unlock()
		s.log.Debug("shell opened after teardown, closing it")
		_ = term.Close()
		return false
	}
	s.state = Streaming
	s.term = term
	cols, rows := s.cols, s.rows
	s.mu.Unlock()

	s.log.Info("streaming (%dx%d)", cols, rows)
	if err := s.conn.WriteControl(newReadyFrame(cols, rows)); err != nil {
		s.terminate(errors.WrapWithCode(err, errors.ErrStreamIO, "Failed to send ready frame", ""), false)
		return false
	}
	return true
}

func (s *Session) handshakeExpired() {
	s.fail(errors.New(errors.ErrTimeout,
		"Timed out waiting for the session to start",
		"Check the host is reachable and try again"), errors.ErrTimeout)
}

// transition moves the session to the next state. It returns false when the
// edge isn't allowed, which in practice means teardown already happened.
func (s *Session) transition(to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.canTransition(to) {
		return false
	}
	s.log.Debug("%s -> %s", s.state, to)
	s.state = to
	return true
}
