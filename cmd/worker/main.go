// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/tendant/simple-weathercast/internal/assets"
	"github.com/tendant/simple-weathercast/internal/bus"
	"github.com/tendant/simple-weathercast/internal/config"
	"github.com/tendant/simple-weathercast/internal/imgsearch"
	"github.com/tendant/simple-weathercast/internal/merge"
	"github.com/tendant/simple-weathercast/internal/record"
	"github.com/tendant/simple-weathercast/internal/work"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fatal(logger, "load config", err)
	}
	if err := cfg.RequireImageSearch(); err != nil {
		fatal(logger, "load config", err)
	}
	if cfg.StorageBackend != "s3" {
		fatal(logger, "load config", fmt.Errorf("worker requires STORAGE_BACKEND=s3, got %q", cfg.StorageBackend))
	}
	logger.Info("worker starting",
		"nats_url", cfg.NATSURL, "job_subject", cfg.JobSubject, "queue", cfg.WorkerQueue,
		"storage_backend", cfg.StorageBackend, "bucket", cfg.S3.Bucket)

	ctx := context.Background()
	client, err := cfg.S3.NewClient(ctx)
	if err != nil {
		fatal(logger, "build s3 client", err)
	}
	recordStore := record.NewS3Store(client, cfg.S3.Bucket)
	assetStore := assets.NewStore(client, cfg.S3.Bucket, cfg.LinkTTL)

	nc, err := bus.Connect(cfg.NATSURL)
	if err != nil {
		fatal(logger, "connect to NATS", err, "nats_url", cfg.NATSURL)
	}
	defer nc.Close()
	logger.Info("connected to NATS", "nats_url", cfg.NATSURL)

	finder := imgsearch.NewClient(cfg.ImageSearchURL, cfg.ImageSearchKey, cfg.HandlerTimeout)
	reporter := merge.NewReporter(recordStore, logger).WithRetry(cfg.MergeAttempts, cfg.MergeDelay)
	worker := work.New(finder, assetStore, reporter, logger)

	_, err = nc.QueueSubscribeJSON(cfg.JobSubject, cfg.WorkerQueue, cfg.HandlerTimeout, func(jobCtx context.Context, data []byte) {
		if err := worker.HandleMessage(jobCtx, data); err != nil {
			logger.Error("job failed", "err", err)
		}
	})
	if err != nil {
		fatal(logger, "subscribe worker", err, "subject", cfg.JobSubject, "queue", cfg.WorkerQueue)
	}
	logger.Info("listening for station jobs", "subject", cfg.JobSubject, "queue", cfg.WorkerQueue)

	select {}
}

func fatal(logger *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, "err", err)
	logger.Error(msg, attrs...)
	os.Exit(1)
}
