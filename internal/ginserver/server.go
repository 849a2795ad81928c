package ginserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/audit-engine/internal/logging"
)

// Server is an HTTP server with standard middleware and lifecycle management.
type Server struct {
	router *gin.Engine
	server *http.Server
	log    logging.Logger
	config *Config
}

// New creates the server: recovery, request-id, logging and CORS middleware
// in that order, health endpoints, then the service-specific routes.
func New(cfg *Config, log logging.Logger, setupRoutes func(*gin.Engine), checks map[string]HealthChecker) *Server {
	cfg.SetDefaults()

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(RecoveryMiddleware(log))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.CORS))

	registerHealthRoutes(router, cfg.ServiceName, cfg.ServiceVersion, checks)

	if setupRoutes != nil {
		setupRoutes(router)
	}

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log:    log,
		config: cfg,
	}
}

// Router returns the underlying gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the server until shutdown or listen failure.
func (s *Server) Start() error {
	s.log.Info("starting http server",
		"address", s.server.Addr,
		"service", s.config.ServiceName,
		"version", s.config.ServiceVersion)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains active connections within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down http server", "timeout", s.config.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

// RunWithGracefulShutdown starts the server and shuts down on SIGINT/SIGTERM
// or context cancellation.
func (s *Server) RunWithGracefulShutdown(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		s.log.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.log.Info("context cancelled, shutting down")
	}

	// Fresh context: the inbound one may already be cancelled.
	return s.Shutdown(context.Background())
}
