package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mindmesh/mindmesh/internal/config"
	"github.com/mindmesh/mindmesh/internal/mindmap"
	"github.com/mindmesh/mindmesh/internal/server"
)

func main() {
	// .env is optional; production relies on real environment variables.
	_ = godotenv.Load()

	cfg := config.NewFromEnv()

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting mindmesh server",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.String("staticDir", cfg.StaticDir))

	docs := mindmap.NewDocumentStore()
	chat := mindmap.NewChatStore()

	hub := server.NewHub(docs, logger)
	go hub.Run()

	handler := server.NewHandler(docs, chat, hub, cfg, logger)
	router := server.NewRouter(handler, cfg, logger)
	srv := server.New(cfg, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("http shutdown incomplete", zap.Error(err))
		}
		if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
			logger.Warn("hub shutdown incomplete", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
