// internal/merge/reporter.go

// Package merge implements the optimistic read-modify-write loop every writer
// uses to fold its outcome into a shared process record. Concurrent writers
// converge because a stale-version conflict always triggers a fresh read and a
// recompute against the post-write state, never a blind resend.
package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/simple-weathercast/internal/record"
)

const (
	defaultMaxAttempts = 8
	defaultRetryDelay  = 50 * time.Millisecond
)

// Outcome is one worker's report: either an asset key on success or a failure
// description. ExpectedCount is the fan-out width carried by the job message,
// applied to the record if no dispatch pass has fixed it yet.
type Outcome struct {
	ImageKey      string
	FailureMsg    string
	ExpectedCount int
}

// Reporter merges outcomes into process records with a bounded retry budget.
type Reporter struct {
	store       record.Store
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

func NewReporter(store record.Store, logger *slog.Logger) *Reporter {
	return &Reporter{
		store:       store,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		logger:      logger,
	}
}

// WithRetry overrides the conflict retry budget and delay.
func (r *Reporter) WithRetry(maxAttempts int, delay time.Duration) *Reporter {
	if maxAttempts > 0 {
		r.maxAttempts = maxAttempts
	}
	r.retryDelay = delay
	return r
}

// Report merges one outcome and returns the record as written. A duplicate
// success (asset key already present) is a no-op and returns the current
// record unchanged.
func (r *Reporter) Report(ctx context.Context, processID string, out Outcome) (record.ProcessRecord, error) {
	return r.apply(ctx, processID, func(rec *record.ProcessRecord) bool {
		changed := rec.SetExpectedCount(out.ExpectedCount)
		if out.ImageKey != "" {
			return rec.AddImage(out.ImageKey) || changed
		}
		rec.AddError(out.FailureMsg)
		return true
	})
}

// FixExpectedCount persists the fan-out width exactly once. If an earlier
// dispatch pass already fixed it, nothing is written and the stored record is
// returned, so a redelivered dispatch message cannot move the goalposts.
func (r *Reporter) FixExpectedCount(ctx context.Context, processID string, n int) (record.ProcessRecord, error) {
	return r.apply(ctx, processID, func(rec *record.ProcessRecord) bool {
		return rec.SetExpectedCount(n)
	})
}

// apply runs the CAS loop: read the current record and its version token,
// recompute, and write conditionally. On conflict the loop starts over from a
// fresh read; any other store error is fatal for this message.
func (r *Reporter) apply(ctx context.Context, processID string, mutate func(*record.ProcessRecord) bool) (record.ProcessRecord, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		rec, etag, err := r.store.Get(ctx, processID)
		if err != nil {
			return record.ProcessRecord{}, fmt.Errorf("read record: %w", err)
		}

		next := rec.Clone()
		if !mutate(&next) {
			return rec, nil
		}

		err = r.store.Update(ctx, next, etag)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, record.ErrConflict) {
			return record.ProcessRecord{}, fmt.Errorf("write record: %w", err)
		}

		lastErr = err
		r.logger.Debug("merge conflict, retrying with fresh state",
			"process_id", processID, "attempt", attempt)
		if r.retryDelay > 0 {
			select {
			case <-time.After(r.retryDelay):
			case <-ctx.Done():
				return record.ProcessRecord{}, ctx.Err()
			}
		}
	}
	return record.ProcessRecord{}, fmt.Errorf("merge retry budget exhausted after %d attempts: %w", r.maxAttempts, lastErr)
}
