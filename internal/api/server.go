package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/greencanopy/allometree/internal/allometry"
	mw "github.com/greencanopy/allometree/internal/api/middleware"
	v2 "github.com/greencanopy/allometree/internal/api/v2"
	"github.com/greencanopy/allometree/internal/logger"
	"github.com/greencanopy/allometree/internal/observability"
	"github.com/greencanopy/allometree/internal/observability/metrics"
	"github.com/greencanopy/allometree/internal/species"
)

// Server is the HTTP server for allometree.
// It manages the Echo instance, middleware, and all HTTP routes.
type Server struct {
	echo   *echo.Echo
	config *Config
	log    logger.Logger

	engine  *allometry.Engine
	catalog *species.Catalog
	metrics *observability.Metrics

	apiController *v2.Controller

	mu       sync.Mutex
	listener net.Listener
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

// WithCatalog sets the native species reference.
func WithCatalog(c *species.Catalog) ServerOption {
	return func(s *Server) { s.catalog = c }
}

// WithMetrics sets the shared metrics instance.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// New creates a new HTTP server serving estimates from engine.
func New(config *Config, engine *allometry.Engine, opts ...ServerOption) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}
	if engine == nil {
		return nil, fmt.Errorf("server requires an allometry engine")
	}

	s := &Server{config: config, engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = GetLogger()
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Logger = logger.NewEchoLoggerAdapter(s.log.Module("echo"))
	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	s.log.Info("HTTP server initialized",
		logger.String("listen", config.Listen),
		logger.Bool("metrics", config.MetricsEnabled && s.metrics != nil))
	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(mw.NewRequestID())
	s.echo.Use(mw.NewRequestLogger(s.log))
	s.echo.Use(mw.NewHTTPMetrics(s.httpMetrics()))
	s.echo.Use(echomw.BodyLimit(s.config.BodyLimit))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	if s.config.MetricsEnabled && s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	limiter := mw.NewRateLimiter(mw.RateLimitConfig{
		Rate:      s.config.RateLimit,
		Burst:     s.config.RateBurst,
		ExpiresIn: s.config.RateLimitExpiry,
	}, s.httpMetrics())

	s.apiController = v2.New(s.echo, s.engine,
		v2.WithCatalog(s.catalog),
		v2.WithHTTPMetrics(s.httpMetrics()),
		v2.WithLogger(s.log),
		v2.WithCacheTTL(s.config.CacheTTL),
		v2.WithMiddleware(limiter),
	)
}

func (s *Server) httpMetrics() *metrics.HTTPMetrics {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.HTTP
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.echo.Listener = ln
	s.log.Info("HTTP server starting", logger.String("address", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		err := s.echo.Start("")
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := s.Shutdown(); err != nil {
		return err
	}
	return <-errCh
}

// Addr returns the bound listener address once Run has started listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info("server shutdown complete")
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// APIController returns the v2 API controller.
func (s *Server) APIController() *v2.Controller {
	return s.apiController
}
