package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pqchat/internal/hub"
	"pqchat/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := hub.LoadConfig()
	logger := logging.NewLogger(logging.Config{
		ServiceName: "pqchat-relay",
		Level:       cfg.LogLevel,
		Format:      "json",
	})
	slog.SetDefault(logger)

	srv := hub.NewServer(cfg, logger)
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("relay listening", "addr", cfg.Addr, "origins", cfg.AllowedOrigins)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("relay stopped", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("relay shutdown", "error", err)
	}
	logger.Info("relay stopped")
}
