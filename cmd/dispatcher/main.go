// cmd/dispatcher/main.go
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/tendant/simple-weathercast/internal/bus"
	"github.com/tendant/simple-weathercast/internal/config"
	"github.com/tendant/simple-weathercast/internal/dispatch"
	"github.com/tendant/simple-weathercast/internal/merge"
	"github.com/tendant/simple-weathercast/internal/record"
	"github.com/tendant/simple-weathercast/internal/weather"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fatal(logger, "load config", err)
	}
	logger.Info("dispatcher starting",
		"nats_url", cfg.NATSURL, "dispatch_subject", cfg.DispatchSubject,
		"queue", cfg.DispatchQueue, "job_subject", cfg.JobSubject,
		"max_jobs", cfg.MaxJobs, "feed_url", cfg.WeatherFeedURL)

	store, err := buildStore(context.Background(), cfg)
	if err != nil {
		fatal(logger, "build record store", err)
	}

	nc, err := bus.Connect(cfg.NATSURL)
	if err != nil {
		fatal(logger, "connect to NATS", err, "nats_url", cfg.NATSURL)
	}
	defer nc.Close()
	logger.Info("connected to NATS", "nats_url", cfg.NATSURL)

	feed := weather.NewClient(cfg.WeatherFeedURL, cfg.HandlerTimeout)
	reporter := merge.NewReporter(store, logger).WithRetry(cfg.MergeAttempts, cfg.MergeDelay)
	dispatcher := dispatch.New(feed, nc, reporter, cfg.JobSubject, cfg.MaxJobs, logger)

	_, err = nc.QueueSubscribeJSON(cfg.DispatchSubject, cfg.DispatchQueue, cfg.HandlerTimeout, func(ctx context.Context, data []byte) {
		if err := dispatcher.HandleMessage(ctx, data); err != nil {
			logger.Error("dispatch failed", "err", err)
		}
	})
	if err != nil {
		fatal(logger, "subscribe dispatch", err, "subject", cfg.DispatchSubject, "queue", cfg.DispatchQueue)
	}
	logger.Info("listening for dispatch messages", "subject", cfg.DispatchSubject, "queue", cfg.DispatchQueue)

	select {}
}

func buildStore(ctx context.Context, cfg config.Config) (record.Store, error) {
	if cfg.StorageBackend == "memory" {
		return record.NewMemStore(), nil
	}
	client, err := cfg.S3.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return record.NewS3Store(client, cfg.S3.Bucket), nil
}

func fatal(logger *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, "err", err)
	logger.Error(msg, attrs...)
	os.Exit(1)
}
