package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/ragstack/ragserver/internal/bootstrap"
	"github.com/ragstack/ragserver/internal/config"
	"github.com/ragstack/ragserver/internal/queue"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	eng, err := bootstrap.NewEngine(ctx, cfg)
	if err != nil {
		slog.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	defer eng.Close()

	// The worker cannot process tasks without a ready engine, so
	// initialization blocks startup here.
	if err := eng.Initialize(ctx); err != nil {
		slog.Error("engine initialization failed", "error", err)
		os.Exit(1)
	}

	ingestSvc, err := bootstrap.NewIngestService(cfg, eng)
	if err != nil {
		slog.Error("failed to build ingest service", "error", err)
		os.Exit(1)
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
		},
	)

	worker := queue.NewIngestWorker(ingestSvc)

	slog.Info("starting ingestion worker", "concurrency", 10)
	if err := srv.Run(worker.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
