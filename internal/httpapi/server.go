// Package httpapi serves the watcher's log, state and control endpoints.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/logstream"
	"github.com/mikey/shortlist-watcher/internal/ports"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies are the components the API reads from and controls.
// Archive is optional.
type Dependencies struct {
	Watcher  ports.Watcher
	Stream   *logstream.Stream
	State    core.StateStore
	Profiles core.ProfileStore
	Archive  ports.ArchiveReader
}

// Config holds HTTP server configuration
type Config struct {
	ListenAddress string
}

// Server provides the HTTP API
type Server struct {
	echo   *echo.Echo
	deps   Dependencies
	logger *zap.Logger
	config *Config
}

// NewServer creates a new HTTP server
func NewServer(deps Dependencies, logger *zap.Logger, cfg *Config) (*Server, error) {
	switch {
	case deps.Watcher == nil:
		return nil, fmt.Errorf("watcher cannot be nil")
	case deps.Stream == nil:
		return nil, fmt.Errorf("log stream cannot be nil")
	case deps.State == nil || deps.Profiles == nil:
		return nil, fmt.Errorf("state and profile stores are required")
	case logger == nil:
		return nil, fmt.Errorf("logger is required")
	}
	if cfg == nil || cfg.ListenAddress == "" {
		cfg = &Config{ListenAddress: "127.0.0.1:8080"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(requestLogger(logger))

	s := &Server{
		echo:   e,
		deps:   deps,
		logger: logger,
		config: cfg,
	}
	s.registerRoutes()

	return s, nil
}

// requestLogger logs every request except the polling-heavy log tail at debug
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			}
			// log lines about /api/logs would feed back into the stream being tailed
			if c.Path() == "/api/logs" {
				logger.Debug("http request", fields...)
			} else {
				logger.Info("http request", fields...)
			}
			return err
		}
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/logs", s.handleLogs)
	api.GET("/state", s.handleState)
	api.GET("/matches", s.handleMatches)
	api.GET("/matches/:id", s.handleMatch)
	api.GET("/profile", s.handleGetProfile)
	api.POST("/profile", s.handleUpdateProfile)
	api.POST("/check-email", s.handleCheckEmail)
	api.POST("/backfill", s.handleBackfill)
	api.GET("/backfill/:id", s.handleBackfillJob)
	api.POST("/runner/start", s.handleRunnerStart)
	api.POST("/runner/stop", s.handleRunnerStop)
	api.GET("/runner/status", s.handleRunnerStatus)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.config.ListenAddress))
	if err := s.echo.Start(s.config.ListenAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}
