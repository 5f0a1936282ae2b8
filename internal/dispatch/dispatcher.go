// internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/simple-weathercast/internal/merge"
	"github.com/tendant/simple-weathercast/internal/weather"
	"github.com/tendant/simple-weathercast/pkg/schema"
)

// StationLister is the weather feed as the dispatcher sees it.
type StationLister interface {
	Stations(ctx context.Context) ([]weather.Station, error)
}

// Publisher sends JSON messages to the work queue.
type Publisher interface {
	PublishJSON(subject string, v any) error
}

// Dispatcher consumes one dispatch message, sizes the fan-out from the
// current station list, fixes the expected count on the record, and enqueues
// one self-describing job per station.
type Dispatcher struct {
	feed       StationLister
	queue      Publisher
	reporter   *merge.Reporter
	jobSubject string
	maxJobs    int
	logger     *slog.Logger
}

func New(feed StationLister, queue Publisher, reporter *merge.Reporter, jobSubject string, maxJobs int, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		feed:       feed,
		queue:      queue,
		reporter:   reporter,
		jobSubject: jobSubject,
		maxJobs:    maxJobs,
		logger:     logger,
	}
}

// HandleMessage processes one raw dispatch payload. Malformed payloads are
// rejected outright; feed outages abort this delivery and leave the record
// queued for the queue's redelivery policy to pick up again.
func (d *Dispatcher) HandleMessage(ctx context.Context, data []byte) error {
	var msg schema.DispatchRequested
	if err := json.Unmarshal(data, &msg); err != nil {
		d.logger.Error("malformed dispatch message", "err", err)
		return fmt.Errorf("decode dispatch message: %w", err)
	}
	if err := msg.Validate(); err != nil {
		d.logger.Error("invalid dispatch message", "err", err)
		return err
	}
	return d.Dispatch(ctx, msg.ProcessID)
}

// Dispatch fans one process out into station jobs. Job payloads are
// deterministic per station, so a redelivered dispatch message enqueues a
// duplicate batch whose results collide on the same asset keys and
// deduplicate at merge time.
func (d *Dispatcher) Dispatch(ctx context.Context, processID string) error {
	logger := d.logger.With("process_id", processID)

	stations, err := d.feed.Stations(ctx)
	if err != nil {
		logger.Error("fetch station list failed, aborting dispatch", "err", err)
		return fmt.Errorf("resolve job count: %w", err)
	}
	if len(stations) > d.maxJobs {
		logger.Info("truncating station list", "stations", len(stations), "max_jobs", d.maxJobs)
		stations = stations[:d.maxJobs]
	}
	if len(stations) == 0 {
		logger.Warn("no stations reporting, nothing to dispatch")
		return nil
	}

	n := len(stations)
	rec, err := d.reporter.FixExpectedCount(ctx, processID, n)
	if err != nil {
		logger.Error("fix expected count failed", "err", err)
		return fmt.Errorf("fix expected count: %w", err)
	}
	if rec.ExpectedCount != n {
		logger.Info("expected count already fixed by an earlier dispatch",
			"recorded", rec.ExpectedCount, "resolved", n)
		n = rec.ExpectedCount
		if n < len(stations) {
			stations = stations[:n]
		}
	}

	now := time.Now().Unix()
	for i, st := range stations {
		job := schema.StationJob{
			ProcessID:     processID,
			JobIndex:      i,
			ExpectedCount: n,
			StationID:     st.ID,
			StationName:   st.Name,
			Description:   st.Description,
			Temperature:   st.Temperature,
			HappenedAt:    now,
		}
		if err := d.queue.PublishJSON(d.jobSubject, job); err != nil {
			logger.Error("enqueue station job failed", "station_id", st.ID, "err", err)
			return fmt.Errorf("enqueue job %d/%d: %w", i+1, n, err)
		}
	}
	logger.Info("dispatched station jobs", "jobs", n)
	return nil
}
