// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries the settings shared by the gateway, dispatcher, and worker
// binaries. Everything comes from the environment; each main loads .env first
// via godotenv.
type Config struct {
	NATSURL string

	DispatchSubject string
	DispatchQueue   string
	JobSubject      string
	WorkerQueue     string

	HTTPAddr string

	StorageBackend string // "s3" or "memory"
	S3             S3Config

	LinkTTL        time.Duration
	HandlerTimeout time.Duration

	WeatherFeedURL string
	MaxJobs        int

	ImageSearchURL string
	ImageSearchKey string

	MergeAttempts int
	MergeDelay    time.Duration
}

type S3Config struct {
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	Endpoint     string
	UsePathStyle bool
}

func Load() (Config, error) {
	cfg := Config{
		NATSURL:         getenv("NATS_URL", "nats://127.0.0.1:4222"),
		DispatchSubject: getenv("DISPATCH_SUBJECT", "weathercast.dispatch"),
		DispatchQueue:   getenv("DISPATCH_QUEUE", "weathercast-dispatchers"),
		JobSubject:      getenv("JOB_SUBJECT", "weathercast.jobs"),
		WorkerQueue:     getenv("WORKER_QUEUE", "weathercast-workers"),
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		StorageBackend:  getenv("STORAGE_BACKEND", "s3"),
		WeatherFeedURL:  getenv("WEATHER_FEED_URL", "https://data.buienradar.nl/2.0/feed/json"),
		ImageSearchURL:  getenv("IMAGE_SEARCH_URL", ""),
		ImageSearchKey:  getenv("IMAGE_SEARCH_KEY", ""),
		S3: S3Config{
			Bucket:       getenv("AWS_S3_BUCKET", "weathercast"),
			Region:       getenv("AWS_S3_REGION", "us-east-1"),
			AccessKey:    getenv("AWS_ACCESS_KEY_ID", ""),
			SecretKey:    getenv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:     getenv("AWS_S3_ENDPOINT", ""),
			UsePathStyle: getenvBool("AWS_S3_USE_PATH_STYLE", true),
		},
	}

	switch cfg.StorageBackend {
	case "s3", "memory":
	default:
		return Config{}, fmt.Errorf("unsupported STORAGE_BACKEND %q (want s3 or memory)", cfg.StorageBackend)
	}

	maxJobs, err := parsePositiveInt(getenv("DISPATCH_MAX_JOBS", "16"), "DISPATCH_MAX_JOBS")
	if err != nil {
		return Config{}, err
	}
	cfg.MaxJobs = maxJobs

	mergeAttempts, err := parsePositiveInt(getenv("MERGE_MAX_ATTEMPTS", "8"), "MERGE_MAX_ATTEMPTS")
	if err != nil {
		return Config{}, err
	}
	cfg.MergeAttempts = mergeAttempts

	mergeDelayMs, err := parsePositiveInt(getenv("MERGE_RETRY_DELAY_MS", "50"), "MERGE_RETRY_DELAY_MS")
	if err != nil {
		return Config{}, err
	}
	cfg.MergeDelay = time.Duration(mergeDelayMs) * time.Millisecond

	linkTTLMin, err := parsePositiveInt(getenv("LINK_TTL_MINUTES", "60"), "LINK_TTL_MINUTES")
	if err != nil {
		return Config{}, err
	}
	cfg.LinkTTL = time.Duration(linkTTLMin) * time.Minute

	handlerSec, err := parsePositiveInt(getenv("HANDLER_TIMEOUT_SECONDS", "30"), "HANDLER_TIMEOUT_SECONDS")
	if err != nil {
		return Config{}, err
	}
	cfg.HandlerTimeout = time.Duration(handlerSec) * time.Second

	return cfg, nil
}

// RequireImageSearch checks the settings only the worker binary needs.
func (c Config) RequireImageSearch() error {
	if c.ImageSearchURL == "" {
		return fmt.Errorf("IMAGE_SEARCH_URL is required")
	}
	return nil
}

func parsePositiveInt(value string, name string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero (got %d)", name, v)
	}
	return v, nil
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvBool(key string, defaultValue bool) bool {
	val := getenv(key, "")
	if val == "" {
		return defaultValue
	}
	return val == "true"
}
