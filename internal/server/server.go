package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/akave-ai/userapi/internal/accesslog"
	"github.com/akave-ai/userapi/internal/config"
	"github.com/akave-ai/userapi/internal/database"
	"github.com/akave-ai/userapi/internal/middleware"
	"github.com/akave-ai/userapi/internal/observability"
)

const (
	// ref: gosec G112
	readHeaderTimeout = 15 * time.Second

	shutdownDeadline = 5 * time.Second
)

// ErrAlreadyStarted is returned when Start or Serve is called a second time.
var ErrAlreadyStarted = errors.New("server already started")

// Phase is the lifecycle state of a Server.
type Phase int32

const (
	// Assembling: the pipeline is being built, nothing is listening.
	Assembling Phase = iota
	// Serving: bound and accepting connections. There is no way back.
	Serving
)

func (p Phase) String() string {
	switch p {
	case Assembling:
		return "assembling"
	case Serving:
		return "serving"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

// Options are the process-wide collaborators besides the database.
type Options struct {
	AccessLog *accesslog.Sink
	Agent     *observability.Agent // optional
	Logger    zerolog.Logger
	Policy    *middleware.SecurityPolicy // optional, defaults to middleware.DefaultSecurityPolicy
}

// Server holds the Echo app and its dependencies.
type Server struct {
	Echo   *echo.Echo
	Config *config.Config

	db     database.Database
	logger zerolog.Logger

	phase    atomic.Int32
	ready    chan struct{}
	listener net.Listener
}

// New assembles the request pipeline and routes. The server stays in the
// Assembling phase until Start or Serve.
//
// db must be a connected handle: the server never runs without one.
func New(cfg *config.Config, db database.Database, opts Options) *Server {
	if db == nil {
		panic("server.New: database handle is nil")
	}
	if opts.AccessLog == nil {
		panic("server.New: access log sink is nil")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(opts.Logger)

	e.Server.ReadHeaderTimeout = readHeaderTimeout
	e.Server.ReadTimeout = time.Duration(cfg.Server.ReadTimeout) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.Server.WriteTimeout) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.Server.IdleTimeout) * time.Second

	s := &Server{
		Echo:   e,
		Config: cfg,
		db:     db,
		logger: opts.Logger,
		ready:  make(chan struct{}),
	}

	s.registerMiddleware(opts)
	s.defineRoutes()

	return s
}

// Phase returns the current lifecycle phase.
func (s *Server) Phase() Phase {
	return Phase(s.phase.Load())
}

// Ready is closed once the server is bound and serving.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, or nil while assembling.
func (s *Server) Addr() net.Addr {
	select {
	case <-s.ready:
		return s.listener.Addr()
	default:
		return nil
	}
}

// Start binds the configured port on all interfaces and serves until ctx is
// cancelled or the server fails.
func (s *Server) Start(ctx context.Context) error {
	if s.Phase() != Assembling {
		return ErrAlreadyStarted
	}

	addr := ":" + s.Config.Server.Port
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. In-flight requests get shutdownDeadline to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.phase.CompareAndSwap(int32(Assembling), int32(Serving)) {
		_ = ln.Close()
		return ErrAlreadyStarted
	}

	s.listener = ln
	s.Echo.Listener = ln
	close(s.ready)

	s.logger.Info().
		Str("address", ln.Addr().String()).
		Msg("Server running")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.Echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownDeadline)
		defer cancel()

		if err := s.Echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		s.logger.Info().Msg("Server stopped")
		return nil
	})

	return g.Wait()
}
