// cmd/gateway/main.go
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/tendant/simple-weathercast/internal/api"
	"github.com/tendant/simple-weathercast/internal/assets"
	"github.com/tendant/simple-weathercast/internal/bus"
	"github.com/tendant/simple-weathercast/internal/config"
	"github.com/tendant/simple-weathercast/internal/record"
	"github.com/tendant/simple-weathercast/internal/status"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fatal(logger, "load config", err)
	}
	logger.Info("gateway starting",
		"addr", cfg.HTTPAddr, "nats_url", cfg.NATSURL,
		"dispatch_subject", cfg.DispatchSubject, "storage_backend", cfg.StorageBackend)

	store, linker, err := buildStorage(context.Background(), cfg)
	if err != nil {
		fatal(logger, "build storage", err)
	}

	nc, err := bus.Connect(cfg.NATSURL)
	if err != nil {
		fatal(logger, "connect to NATS", err, "nats_url", cfg.NATSURL)
	}
	defer nc.Close()
	logger.Info("connected to NATS", "nats_url", cfg.NATSURL)

	projection := status.NewProjection(store, linker)
	handler := api.NewHandler(store, nc, projection, cfg.DispatchSubject, logger)

	logger.Info("listening", "addr", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, handler.Routes()); err != nil {
		fatal(logger, "serve http", err)
	}
}

func buildStorage(ctx context.Context, cfg config.Config) (record.Store, status.Linker, error) {
	if cfg.StorageBackend == "memory" {
		return record.NewMemStore(), status.KeyLinker("memory://"), nil
	}
	client, err := cfg.S3.NewClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	return record.NewS3Store(client, cfg.S3.Bucket),
		assets.NewStore(client, cfg.S3.Bucket, cfg.LinkTTL), nil
}

func fatal(logger *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, "err", err)
	logger.Error(msg, attrs...)
	os.Exit(1)
}
