// Package gateway serves browser terminal sessions over WebSocket. Each
// connection is upgraded and handed to its own bridge.Session.
package gateway

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/morezaGeek/Server-Monitor/internal/bridge"
	"github.com/morezaGeek/Server-Monitor/internal/logger"
	"github.com/morezaGeek/Server-Monitor/pkg/sshutil"
)

// Defaults for Options fields left at zero.
const (
	DefaultWriteTimeout = 10 * time.Second
	DefaultCloseTimeout = 2 * time.Second
)

// Options configures the gateway.
type Options struct {
	// AllowedOrigins lists browser origins (scheme://host[:port]) permitted
	// to connect. Empty allows same-origin requests only. Requests without
	// an Origin header (non-browser clients) are always allowed.
	AllowedOrigins []string

	MaxMessageBytes int64
	PingInterval    time.Duration
	WriteTimeout    time.Duration
	CloseTimeout    time.Duration

	Session bridge.Options
	Logger  logger.Logger
}

// Gateway is an http.Handler that runs one bridge.Session per WebSocket.
type Gateway struct {
	base     context.Context
	opener   sshutil.Opener
	opts     Options
	upgrader websocket.Upgrader
	log      logger.Logger

	wg     sync.WaitGroup
	mu     sync.Mutex
	active map[string]*bridge.Session
}

// New creates a gateway. Cancelling ctx ends every live session with a
// going-away close.
func New(ctx context.Context, opener sshutil.Opener, opts Options) *Gateway {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.CloseTimeout <= 0 {
		opts.CloseTimeout = DefaultCloseTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewEnvLogger("[gateway]")
	}
	if opts.Session.Logger == nil {
		opts.Session.Logger = log
	}

	g := &Gateway{
		base:   ctx,
		opener: opener,
		opts:   opts,
		log:    log,
		active: make(map[string]*bridge.Session),
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin(opts.AllowedOrigins),
	}
	return g
}

// ServeHTTP upgrades the request and runs the session until it ends.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if g.base.Err() != nil {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error response.
		g.log.Warn("websocket upgrade from %s failed: %v", clientIP(r), err)
		return
	}

	id := uuid.NewString()
	sess := bridge.New(id, newConn(ws, g.opts), g.opener, g.opts.Session)

	g.track(id, sess)
	defer g.untrack(id)

	g.log.Info("session %s opened from %s", id, clientIP(r))
	if err := sess.Run(g.base); err != nil {
		g.log.Debug("session %s ended: %v", id, err)
	}
}

func (g *Gateway) track(id string, sess *bridge.Session) {
	g.wg.Add(1)
	g.mu.Lock()
	g.active[id] = sess
	g.mu.Unlock()
}

func (g *Gateway) untrack(id string) {
	g.mu.Lock()
	delete(g.active, id)
	g.mu.Unlock()
	g.wg.Done()
}

// Active returns the number of live sessions.
func (g *Gateway) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}

// Wait blocks until every session has ended or ctx is done. Sessions only
// end on their own, so callers cancel the gateway's base context first.
func (g *Gateway) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// checkOrigin builds the upgrader's origin policy.
func checkOrigin(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		set[normalizeOrigin(origin)] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		return set[normalizeOrigin(origin)]
	}
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}

// clientIP returns the remote address without its port. Behind a proxy the
// router's RealIP middleware has already rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
