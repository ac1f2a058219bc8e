package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/CindyCUI423/Recam-sub000/internal/app"
	"github.com/CindyCUI423/Recam-sub000/internal/config"
	"github.com/CindyCUI423/Recam-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("recam-history-worker", cfg.LogLevel)
	log.Info("starting history worker",
		slog.String("environment", cfg.Environment),
		slog.String("topic", cfg.HistoryTopic),
		slog.Int("http_port", cfg.WorkerHTTPPort),
	)

	worker, err := app.NewWorker(cfg, log)
	if err != nil {
		log.Error("failed to initialize history worker", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := worker.Run(ctx); err != nil {
		log.Error("history worker error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("history worker stopped")
}
