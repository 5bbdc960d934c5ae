// Package server constructs and runs the MindMesh HTTP service with
// production timeouts and graceful shutdown.
package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mindmesh/mindmesh/internal/config"
)

// Server owns the HTTP listener. The WebSocket hub is shut down separately by
// the caller after the listener drains, so in-flight REST requests finish
// before realtime connections are torn down.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// New creates a Server for the given handler. Read and write timeouts apply
// to plain HTTP only; upgraded WebSocket connections are hijacked and manage
// their own deadlines in the client pumps.
func New(cfg *config.Config, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Port,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening and blocks until the server stops. It returns
// http.ErrServerClosed after a graceful Shutdown.
func (s *Server) Start() error {
	s.logger.Info("listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting new connections and waits for active requests to
// complete or the context to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("http server shutdown", zap.Error(err))
		return err
	}
	return nil
}
