// Package server provides the HTTP server for the application.
// It handles server lifecycle, API routes, and graceful shutdown.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/api/router"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/config"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
)

// HTTP server timeout configuration
const (
	defaultReadTimeout     = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 30 * time.Second
)

// Engine is the background task engine owned by the server lifecycle.
// Implemented by engine.Engine.
type Engine interface {
	Start()
	Stop(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	cfg        *config.Config
	deps       router.Deps
	engine     Engine
	httpServer *http.Server
	listener   net.Listener
	router     *gin.Engine

	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a new server instance
func New(cfg *config.Config, deps router.Deps, e Engine) *Server {
	// Set Gin mode based on debug flag
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	return &Server{
		cfg:    cfg,
		deps:   deps,
		engine: e,
		router: r,
	}
}

// SetupRoutes configures all API routes
func (s *Server) SetupRoutes() {
	router.Setup(s.router, s.deps, s.cfg)
}

// Start binds the listen address, starts the engine and serves in the background.
// Bind failures are returned; the engine is not started in that case.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Server.Address())
	if err != nil {
		return err
	}
	s.listener = ln

	// WriteTimeout must outlast the bounded wait of /analyze-code.
	writeTimeout := s.cfg.Server.SyncWaitTimeoutDuration() + defaultReadTimeout
	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	if s.engine != nil {
		s.engine.Start()
	}

	logger.Info("Starting HTTP server",
		zap.String("address", ln.Addr().String()),
		zap.Bool("debug", s.cfg.Server.Debug),
	)

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped unexpectedly", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound listen address, or "" before Start
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests, then stops the engine.
// Both phases share the configured shutdown grace period. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		grace := s.cfg.Server.ShutdownTimeoutDuration()
		if grace <= 0 {
			grace = defaultShutdownTimeout
		}
		ctx, cancel := context.WithTimeout(ctx, grace)
		defer cancel()

		var errs []error
		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(ctx); err != nil {
				logger.Error("Server forced to shutdown", zap.Error(err))
				errs = append(errs, err)
			}
		}
		if s.engine != nil {
			if err := s.engine.Stop(ctx); err != nil {
				logger.Warn("Engine did not stop within grace period, in-flight tasks left for recovery",
					zap.Error(err),
				)
				errs = append(errs, err)
			}
		}
		s.shutdownErr = errors.Join(errs...)
		logger.Info("Server stopped")
	})
	return s.shutdownErr
}

// WaitForShutdown waits for shutdown signal and gracefully stops the server.
// First signal triggers graceful shutdown, second signal forces immediate exit.
func (s *Server) WaitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info("Received shutdown signal, starting graceful shutdown (press Ctrl+C again to force exit)",
		zap.String("signal", sig.String()))

	go func() {
		sig := <-quit
		logger.Warn("Received second shutdown signal, forcing exit",
			zap.String("signal", sig.String()))
		os.Exit(1)
	}()

	return s.Shutdown(context.Background())
}

// Router returns the underlying Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}
