package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISPATCH_MAX_JOBS", "")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.NATSURL != "nats://127.0.0.1:4222" {
		t.Fatalf("unexpected NATS URL: %s", cfg.NATSURL)
	}
	if cfg.DispatchSubject != "weathercast.dispatch" || cfg.JobSubject != "weathercast.jobs" {
		t.Fatalf("unexpected subjects: %s %s", cfg.DispatchSubject, cfg.JobSubject)
	}
	if cfg.StorageBackend != "s3" {
		t.Fatalf("unexpected backend: %s", cfg.StorageBackend)
	}
	if cfg.MaxJobs != 16 {
		t.Fatalf("unexpected max jobs: %d", cfg.MaxJobs)
	}
	if cfg.LinkTTL != time.Hour {
		t.Fatalf("unexpected link ttl: %s", cfg.LinkTTL)
	}
	if cfg.HandlerTimeout != 30*time.Second {
		t.Fatalf("unexpected handler timeout: %s", cfg.HandlerTimeout)
	}
	if cfg.MergeAttempts != 8 || cfg.MergeDelay != 50*time.Millisecond {
		t.Fatalf("unexpected merge settings: %d %s", cfg.MergeAttempts, cfg.MergeDelay)
	}
}

func TestLoadInvalidMaxJobs(t *testing.T) {
	t.Setenv("DISPATCH_MAX_JOBS", "zero")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid DISPATCH_MAX_JOBS")
	}

	t.Setenv("DISPATCH_MAX_JOBS", "-3")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative DISPATCH_MAX_JOBS")
	}
}

func TestLoadUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "redis")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestRequireImageSearch(t *testing.T) {
	t.Setenv("IMAGE_SEARCH_URL", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := cfg.RequireImageSearch(); err == nil {
		t.Fatal("expected error when IMAGE_SEARCH_URL is unset")
	}

	t.Setenv("IMAGE_SEARCH_URL", "https://search.example/images")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := cfg.RequireImageSearch(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
