// Package server wires the REST endpoints, the WebSocket upgrade, and the
// static client into a chi router.
package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mindmesh/mindmesh/internal/config"
)

// NewRouter assembles all routes and middleware.
func NewRouter(h *Handler, cfg *config.Config, logger *zap.Logger) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", h.Health)
	router.Get("/ws", h.ServeWS)

	router.Route("/api/mindmaps", func(r chi.Router) {
		r.Post("/", h.CreateMindMap)
		r.Get("/{id}", h.GetMindMap)
		r.Put("/{id}", h.UpdateMindMap)
		r.Get("/{id}/chat", h.ListChat)
		r.Post("/{id}/chat", h.PostChat)
	})

	if cfg.StaticDir != "" {
		router.NotFound(spaHandler(cfg.StaticDir))
	}

	return router
}

// requestLogger logs one line per request with status, size, and timing.
func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestId", chimiddleware.GetReqID(r.Context())),
				zap.String("remoteAddr", r.RemoteAddr))
		})
	}
}

// spaHandler serves the built client application. Paths that do not map to a
// file fall back to index.html so client-side routing works; API paths are
// never swallowed because matched routes take precedence over NotFound.
func spaHandler(staticDir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(staticDir))

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		requested := filepath.Join(staticDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
	}
}
