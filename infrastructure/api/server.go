// Package api provides the HTTP server for the embeddings service.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Server represents the HTTP API server.
type Server struct {
	router       chi.Router
	httpServer   *http.Server
	logger       *slog.Logger
	addr         string
	writeTimeout time.Duration
}

// NewServer creates a new API Server. requestTimeout is the encoding
// deadline the embedding service enforces; the server's write timeout is
// derived from it so a response is never cut off before the advisory
// timeout fires.
func NewServer(addr string, requestTimeout time.Duration, logger *slog.Logger) Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()

	// Encoding deadlines are enforced by the embedding service itself, so no
	// chi Timeout middleware here. WriteTimeout below is the hard backstop.
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	return Server{
		router:       router,
		addr:         addr,
		logger:       logger,
		writeTimeout: writeTimeout(requestTimeout),
	}
}

// writeTimeout leaves serialization headroom above the encoding deadline.
func writeTimeout(requestTimeout time.Duration) time.Duration {
	const (
		fallback = 120 * time.Second
		headroom = 30 * time.Second
	)
	if requestTimeout <= 0 {
		return fallback
	}
	return requestTimeout + headroom
}

// Router returns the chi router for registering routes.
func (s Server) Router() chi.Router {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the server address.
func (s Server) Addr() string {
	return s.addr
}
