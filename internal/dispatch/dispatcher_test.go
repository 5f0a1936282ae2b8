package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/tendant/simple-weathercast/internal/merge"
	"github.com/tendant/simple-weathercast/internal/record"
	"github.com/tendant/simple-weathercast/internal/weather"
	"github.com/tendant/simple-weathercast/pkg/schema"
)

type fakeFeed struct {
	stations []weather.Station
	err      error
}

func (f fakeFeed) Stations(ctx context.Context) ([]weather.Station, error) {
	return f.stations, f.err
}

type capturingQueue struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	failAt   int // 1-based publish index that fails; 0 = never
}

func (q *capturingQueue) PublishJSON(subject string, v any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failAt > 0 && len(q.payloads)+1 == q.failAt {
		return errors.New("queue down")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	q.subjects = append(q.subjects, subject)
	q.payloads = append(q.payloads, b)
	return nil
}

func (q *capturingQueue) jobs(t *testing.T) []schema.StationJob {
	t.Helper()
	out := make([]schema.StationJob, 0, len(q.payloads))
	for _, b := range q.payloads {
		var job schema.StationJob
		if err := json.Unmarshal(b, &job); err != nil {
			t.Fatalf("unmarshal published job: %v", err)
		}
		out = append(out, job)
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stations(n int) []weather.Station {
	out := make([]weather.Station, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, weather.Station{
			ID:          i,
			Name:        fmt.Sprintf("Station %d", i),
			Description: "partly cloudy",
			Temperature: 18.5,
		})
	}
	return out
}

func newTestDispatcher(t *testing.T, feed StationLister, queue Publisher, maxJobs int) (*Dispatcher, *record.MemStore) {
	t.Helper()
	store := record.NewMemStore()
	if err := store.Create(context.Background(), record.New("p1", time.Now())); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	reporter := merge.NewReporter(store, testLogger())
	return New(feed, queue, reporter, "weathercast.jobs", maxJobs, testLogger()), store
}

func TestDispatchEnqueuesOneJobPerStation(t *testing.T) {
	queue := &capturingQueue{}
	d, store := newTestDispatcher(t, fakeFeed{stations: stations(3)}, queue, 16)

	if err := d.Dispatch(context.Background(), "p1"); err != nil {
		t.Fatalf("dispatch returned error: %v", err)
	}

	jobs := queue.jobs(t)
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	seenStations := map[int]bool{}
	for i, job := range jobs {
		if job.ProcessID != "p1" || job.ExpectedCount != 3 {
			t.Fatalf("job %d not self-describing: %+v", i, job)
		}
		if job.JobIndex != i {
			t.Fatalf("job indexes not disjoint: %+v", job)
		}
		if err := job.Validate(); err != nil {
			t.Fatalf("published job invalid: %v", err)
		}
		if seenStations[job.StationID] {
			t.Fatalf("station %d dispatched twice", job.StationID)
		}
		seenStations[job.StationID] = true
	}

	rec, _, err := store.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if rec.ExpectedCount != 3 {
		t.Fatalf("expected count not persisted: %+v", rec)
	}
}

func TestDispatchCapsJobCount(t *testing.T) {
	queue := &capturingQueue{}
	d, _ := newTestDispatcher(t, fakeFeed{stations: stations(40)}, queue, 5)

	if err := d.Dispatch(context.Background(), "p1"); err != nil {
		t.Fatalf("dispatch returned error: %v", err)
	}
	jobs := queue.jobs(t)
	if len(jobs) != 5 {
		t.Fatalf("expected 5 capped jobs, got %d", len(jobs))
	}
	for _, job := range jobs {
		if job.ExpectedCount != 5 {
			t.Fatalf("expected count should match the capped width: %+v", job)
		}
	}
}

func TestDispatchFeedOutageAborts(t *testing.T) {
	queue := &capturingQueue{}
	d, store := newTestDispatcher(t, fakeFeed{err: errors.New("feed down")}, queue, 16)

	if err := d.Dispatch(context.Background(), "p1"); err == nil {
		t.Fatal("expected error when the feed is down")
	}
	if len(queue.payloads) != 0 {
		t.Fatalf("no jobs should be enqueued, got %d", len(queue.payloads))
	}
	rec, _, _ := store.Get(context.Background(), "p1")
	if rec.Status != record.StatusQueued || rec.ExpectedCount != 0 {
		t.Fatalf("record should stay untouched: %+v", rec)
	}
}

func TestDispatchNoStations(t *testing.T) {
	queue := &capturingQueue{}
	d, _ := newTestDispatcher(t, fakeFeed{}, queue, 16)

	if err := d.Dispatch(context.Background(), "p1"); err != nil {
		t.Fatalf("empty feed should not error: %v", err)
	}
	if len(queue.payloads) != 0 {
		t.Fatalf("no jobs expected, got %d", len(queue.payloads))
	}
}

func TestDispatchEnqueueFailurePropagates(t *testing.T) {
	queue := &capturingQueue{failAt: 2}
	d, _ := newTestDispatcher(t, fakeFeed{stations: stations(3)}, queue, 16)

	if err := d.Dispatch(context.Background(), "p1"); err == nil {
		t.Fatal("expected error when enqueue fails mid-batch")
	}
}

func TestRedeliveredDispatchKeepsOriginalWidth(t *testing.T) {
	queue := &capturingQueue{}
	store := record.NewMemStore()
	if err := store.Create(context.Background(), record.New("p1", time.Now())); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	reporter := merge.NewReporter(store, testLogger())

	first := New(fakeFeed{stations: stations(3)}, queue, reporter, "weathercast.jobs", 16, testLogger())
	if err := first.Dispatch(context.Background(), "p1"); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}

	// The feed grew between delivery and redelivery; the fence keeps the
	// original width and the duplicate batch stays within it.
	second := New(fakeFeed{stations: stations(6)}, queue, reporter, "weathercast.jobs", 16, testLogger())
	if err := second.Dispatch(context.Background(), "p1"); err != nil {
		t.Fatalf("redelivered dispatch: %v", err)
	}

	rec, _, _ := store.Get(context.Background(), "p1")
	if rec.ExpectedCount != 3 {
		t.Fatalf("redelivery moved the goalposts: %+v", rec)
	}
	for _, job := range queue.jobs(t) {
		if job.ExpectedCount != 3 {
			t.Fatalf("redelivered job carries wrong width: %+v", job)
		}
	}
}

func TestHandleMessageRejectsMalformed(t *testing.T) {
	queue := &capturingQueue{}
	d, _ := newTestDispatcher(t, fakeFeed{stations: stations(1)}, queue, 16)
	ctx := context.Background()

	if err := d.HandleMessage(ctx, []byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if err := d.HandleMessage(ctx, []byte(`{"process_id":""}`)); err == nil {
		t.Fatal("expected error for missing process_id")
	}
	if len(queue.payloads) != 0 {
		t.Fatalf("malformed messages must not dispatch, got %d jobs", len(queue.payloads))
	}
}
