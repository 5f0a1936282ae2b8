// internal/work/worker.go
package work

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tendant/simple-weathercast/internal/assets"
	"github.com/tendant/simple-weathercast/internal/img"
	"github.com/tendant/simple-weathercast/internal/merge"
	"github.com/tendant/simple-weathercast/pkg/schema"
)

// ImageFinder locates and downloads a subject photo for a search query.
type ImageFinder interface {
	FindImage(ctx context.Context, query string) ([]byte, error)
}

// AssetPutter stores one rendered snapshot under a deterministic key.
type AssetPutter interface {
	Put(ctx context.Context, key string, jpeg []byte) error
}

// Worker processes one station job: fetch a photo, overlay the station's
// measurements, store the snapshot, and merge the outcome into the process
// record. External-work failures are merged into the record's errors instead
// of being dropped, so the record always reaches an explainable state.
type Worker struct {
	finder   ImageFinder
	store    AssetPutter
	reporter *merge.Reporter
	logger   *slog.Logger
}

func New(finder ImageFinder, store AssetPutter, reporter *merge.Reporter, logger *slog.Logger) *Worker {
	return &Worker{finder: finder, store: store, reporter: reporter, logger: logger}
}

// HandleMessage processes one raw job payload. A malformed payload is
// rejected and logged; it carries no usable process identity to report into.
func (w *Worker) HandleMessage(ctx context.Context, data []byte) error {
	var job schema.StationJob
	if err := json.Unmarshal(data, &job); err != nil {
		w.logger.Error("malformed station job", "err", err)
		return fmt.Errorf("decode station job: %w", err)
	}
	if err := job.Validate(); err != nil {
		w.logger.Error("invalid station job", "err", err)
		return err
	}
	return w.Handle(ctx, job)
}

// Handle runs the external work and merges exactly one outcome. Only a merge
// failure (store outage, retry budget exhausted) is returned to the caller;
// an external-work failure is itself the outcome.
func (w *Worker) Handle(ctx context.Context, job schema.StationJob) error {
	logger := w.logger.With("process_id", job.ProcessID, "station_id", job.StationID)

	out := merge.Outcome{ExpectedCount: job.ExpectedCount}
	key, err := w.renderSnapshot(ctx, job)
	if err != nil {
		logger.Warn("station snapshot failed", "err", err)
		out.FailureMsg = fmt.Sprintf("station %d (%s): %v", job.StationID, job.StationName, err)
	} else {
		logger.Info("station snapshot stored", "asset_key", key)
		out.ImageKey = key
	}

	rec, err := w.reporter.Report(ctx, job.ProcessID, out)
	if err != nil {
		logger.Error("merge outcome failed", "err", err)
		return fmt.Errorf("merge outcome: %w", err)
	}
	logger.Info("merged outcome",
		"status", rec.Status, "images", len(rec.Images), "errors", len(rec.Errors), "expected", rec.ExpectedCount)
	return nil
}

func (w *Worker) renderSnapshot(ctx context.Context, job schema.StationJob) (string, error) {
	photo, err := w.finder.FindImage(ctx, job.StationName)
	if err != nil {
		return "", fmt.Errorf("find photo: %w", err)
	}

	snapshot, err := img.RenderSnapshot(photo, img.Caption{
		Title:    job.StationName,
		Subtitle: fmt.Sprintf("%s, %.1f°C", job.Description, job.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("render snapshot: %w", err)
	}

	key := assets.SnapshotKey(job.ProcessID, job.StationID, job.StationName)
	if err := w.store.Put(ctx, key, snapshot); err != nil {
		return "", fmt.Errorf("store snapshot: %w", err)
	}
	return key, nil
}
