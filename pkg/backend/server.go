package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/aii-robotic-labs/http-privacy/pkg/backend/handlers"
	"github.com/aii-robotic-labs/http-privacy/pkg/backend/middleware"
	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	"github.com/aii-robotic-labs/http-privacy/pkg/dispatch"
	"github.com/aii-robotic-labs/http-privacy/pkg/metrics"
)

// DefaultShutdownTimeout bounds graceful shutdown when the configuration sets none
const DefaultShutdownTimeout = 30 * time.Second

// Server ties the router, middleware and dispatch facade together
type Server struct {
	config     backendtypes.BackendConfig
	facade     *dispatch.Facade
	logger     logrus.FieldLogger
	metrics    *metrics.Collector
	router     chi.Router
	httpServer *http.Server
}

// NewServer creates a server for facade. collector may be nil when metrics are disabled.
func NewServer(config backendtypes.BackendConfig, facade *dispatch.Facade, logger logrus.FieldLogger, collector *metrics.Collector) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		config:  config,
		facade:  facade,
		logger:  logger,
		metrics: collector,
		router:  chi.NewRouter(),
	}
	s.setupRoutes()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadTimeout:       config.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      config.Server.WriteTimeout,
	}
	return s
}

// setupRoutes registers middleware and routes. Static routes win over /{backend}.
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(s.logger))
	if s.metrics != nil && !s.config.Metrics.Disabled {
		r.Use(middleware.Metrics(s.metrics))
	}
	r.Use(middleware.Recovery(s.logger))
	if !s.config.Security.Disabled {
		r.Use(middleware.SecureHeaders(middleware.SecureConfig{
			IsDevelopment:         s.config.Security.IsDevelopment,
			ContentSecurityPolicy: s.config.Security.ContentSecurityPolicy,
			ReferrerPolicy:        s.config.Security.ReferrerPolicy,
		}))
	}
	if s.config.CORS.Enabled {
		r.Use(middleware.CORS(middleware.CORSConfig{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   s.config.CORS.AllowedMethods,
			AllowedHeaders:   s.config.CORS.AllowedHeaders,
			AllowCredentials: s.config.CORS.AllowCredentials,
		}))
	}
	if s.config.Auth.Enabled {
		r.Use(middleware.Auth(middleware.AuthConfig{
			Enabled:     true,
			APIPassword: s.config.Auth.APIPassword,
			APIKeyEnv:   s.config.Auth.APIKeyEnv,
			PublicPaths: s.config.Auth.PublicPaths,
		}))
	}

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	health := handlers.NewHealthHandler(s.facade, s.config.Server.Version)
	r.Get("/health", health.Health)
	r.Get("/status", health.Status)
	r.Get("/version", health.Version)
	r.Get("/api/backends", health.ListBackends)

	if s.metrics != nil && !s.config.Metrics.Disabled {
		path := s.config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, s.metrics.Handler())
	}

	dispatchHandler := handlers.NewDispatchHandler(s.facade, s.logger)
	r.Post("/", dispatchHandler.Echo)
	r.Post("/boto3", dispatchHandler.Echo)
	r.Post("/api/ai", dispatchHandler.PreprocessAndForward)
	r.Post("/{"+handlers.BackendParam+"}", dispatchHandler.Chat)
}

// Handler returns the fully wired HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr is the configured listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Server.Host, fmt.Sprint(s.config.Server.Port))
}

// Start listens on the configured address and serves until Shutdown
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener until Shutdown
func (s *Server) Serve(listener net.Listener) error {
	backends := s.facade.Backends()
	names := make([]string, 0, len(backends))
	for _, b := range backends {
		names = append(names, b.Name)
	}
	s.logger.WithFields(logrus.Fields{
		"addr":     listener.Addr().String(),
		"version":  s.config.Server.Version,
		"backends": names,
	}).Info("starting server")

	return s.httpServer.Serve(listener)
}

// Shutdown gracefully stops the server, waiting for in-flight requests until ctx ends
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// GetConfig returns the server configuration
func (s *Server) GetConfig() backendtypes.BackendConfig {
	return s.config
}

// ListenAndServeWithGracefulShutdown starts the server and shuts it down when ctx is done
func (s *Server) ListenAndServeWithGracefulShutdown(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		timeout := s.config.Server.ShutdownTimeout
		if timeout == 0 {
			timeout = DefaultShutdownTimeout
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return s.Shutdown(shutdownCtx)
	}
}
