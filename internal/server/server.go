// Package server assembles the dashboard HTTP server: the access gate, the
// telemetry API, the terminal gateway and the static front end.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/morezaGeek/Server-Monitor/internal/bridge"
	"github.com/morezaGeek/Server-Monitor/internal/config"
	"github.com/morezaGeek/Server-Monitor/internal/errors"
	"github.com/morezaGeek/Server-Monitor/internal/gateway"
	"github.com/morezaGeek/Server-Monitor/internal/logger"
	"github.com/morezaGeek/Server-Monitor/internal/telemetry"
	"github.com/morezaGeek/Server-Monitor/pkg/sshutil"
)

// Server is the dashboard HTTP server.
type Server struct {
	cfg     *config.Config
	log     logger.Logger
	version string

	sampler *telemetry.Sampler
	gw      *gateway.Gateway

	// gwCancel ends every terminal session. Shutdown calls it before
	// draining HTTP because hijacked connections are invisible to
	// http.Server.Shutdown.
	gwCancel context.CancelFunc

	handler http.Handler
}

// Options carries the collaborators New does not build from config.
type Options struct {
	// Opener opens remote shells. Nil builds an sshutil.Dialer from cfg.SSH.
	Opener  sshutil.Opener
	Logger  logger.Logger
	Version string
}

// New builds the server from a validated config.
func New(cfg *config.Config, opts Options) (*Server, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewEnvLogger("[server]")
	}

	opener := opts.Opener
	if opener == nil {
		dialer, err := NewDialer(cfg.SSH, log)
		if err != nil {
			return nil, err
		}
		opener = dialer
	}

	s := &Server{cfg: cfg, log: log, version: opts.Version}

	if cfg.Telemetry.Enabled {
		s.sampler = telemetry.NewSampler(telemetry.Options{
			ProcRoot: cfg.Telemetry.ProcRoot,
			DiskPath: cfg.Telemetry.DiskPath,
			Interval: cfg.Telemetry.Interval,
			History:  cfg.Telemetry.History,
			Logger:   logger.WithPrefix(log, "[telemetry]"),
		})
	}

	gwCtx, gwCancel := context.WithCancel(context.Background())
	s.gwCancel = gwCancel
	s.gw = gateway.New(gwCtx, opener, gateway.Options{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		MaxMessageBytes: cfg.Session.MaxMessageBytes,
		PingInterval:    cfg.Session.PingInterval,
		CloseTimeout:    cfg.Session.CloseTimeout,
		Session: bridge.Options{
			HandshakeTimeout: cfg.Session.HandshakeTimeout,
			DefaultCols:      cfg.Session.DefaultCols,
			DefaultRows:      cfg.Session.DefaultRows,
			ReadBuffer:       cfg.Session.ReadBuffer,
		},
		Logger: logger.WithPrefix(log, "[gateway]"),
	})

	s.handler = s.buildRouter()
	return s, nil
}

// NewDialer builds the SSH opener from the ssh config section.
func NewDialer(cfg config.SSHConfig, log logger.Logger) (*sshutil.Dialer, error) {
	hostKeys, err := sshutil.HostKeyCallback(cfg.KnownHosts, cfg.StrictHostKeyChecking)
	if err != nil {
		return nil, err
	}
	return &sshutil.Dialer{
		Timeout:           cfg.DialTimeout,
		Term:              cfg.Term,
		HostKeyCallback:   hostKeys,
		ConfigFile:        cfg.ConfigFile,
		KeepaliveInterval: cfg.KeepaliveInterval,
		Logger:            logger.WithPrefix(log, "[ssh]"),
	}, nil
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Gateway returns the terminal gateway.
func (s *Server) Gateway() *gateway.Gateway {
	return s.gw
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealthz)

	r.Group(func(r chi.Router) {
		r.Use(basicAuth(s.cfg.Dashboard, s.log))

		r.Route("/api", func(r chi.Router) {
			r.Get("/stats", s.handleStats)
			r.Get("/stats/history", s.handleStatsHistory)
			r.Get("/interfaces", s.handleInterfaces)
			r.Get("/ssh", s.gw.ServeHTTP)
		})

		if dir := s.cfg.Server.StaticDir; dir != "" {
			r.Handle("/*", http.FileServer(http.Dir(dir)))
		}
	})

	return r
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Listen)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrServer,
			fmt.Sprintf("Failed to listen on %s", s.cfg.Server.Listen),
			"Check that no other process is using the port, or change server.listen")
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down:
// terminal sessions are closed with going-away, in-flight HTTP requests
// are drained, and everything is bounded by server.shutdown_timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.cfg.Dashboard.GateEnabled() {
		s.log.Warn("dashboard access gate is disabled; set dashboard.username and dashboard.password_hash")
	}

	samplerCtx, stopSampler := context.WithCancel(ctx)
	defer stopSampler()
	if s.sampler != nil {
		go s.sampler.Run(samplerCtx)
	}

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.log.Info("listening on %s", ln.Addr())
		if err := httpServer.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		s.gwCancel()
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrServer, "HTTP server failed", "")
		}
		return nil
	}

	s.log.Info("shutting down (%d terminal sessions)", s.gw.Active())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	s.gwCancel()
	shutdownErr := httpServer.Shutdown(shutdownCtx)
	if err := s.gw.Wait(shutdownCtx); err != nil {
		s.log.Warn("terminal sessions still open after %s", s.cfg.Server.ShutdownTimeout)
		_ = httpServer.Close()
		return errors.WrapWithCode(err, errors.ErrServer, "Shutdown timed out", "")
	}
	if shutdownErr != nil {
		return errors.WrapWithCode(shutdownErr, errors.ErrServer, "Shutdown timed out", "")
	}
	return nil
}

// requestLogger logs each request at debug level. The terminal endpoint
// logs its own lifecycle.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("%s %s %d %s from %s", r.Method, r.URL.Path, ww.Status(), time.Since(start), r.RemoteAddr)
	})
}
