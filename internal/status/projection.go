// internal/status/projection.go
package status

import (
	"context"
	"fmt"
	"time"

	"github.com/tendant/simple-weathercast/internal/record"
)

// Linker turns an internal asset key into a time-bounded download URL.
type Linker interface {
	Link(ctx context.Context, key string) (string, error)
}

// View is the client-facing projection of a process record. Raw asset keys
// are replaced by expiring links; nothing in the view can mutate the record.
type View struct {
	ProcessID     string        `json:"process_id"`
	CreatedAt     time.Time     `json:"created_at"`
	Status        record.Status `json:"status"`
	ExpectedCount int           `json:"expected_count"`
	ImageLinks    []string      `json:"image_links"`
	Errors        []string      `json:"errors"`
}

// KeyLinker is a Linker that just prefixes the raw key. Used with the memory
// storage backend, which has no presigning to offer.
type KeyLinker string

func (l KeyLinker) Link(ctx context.Context, key string) (string, error) {
	return string(l) + key, nil
}

// Projection reads records and renders point-in-time views.
type Projection struct {
	store  record.Store
	linker Linker
}

func NewProjection(store record.Store, linker Linker) *Projection {
	return &Projection{store: store, linker: linker}
}

// Build returns the current view of one process. A missing record surfaces as
// record.ErrNotFound for the caller to map; concurrent merges are fine, the
// view is a snapshot of whatever revision the read observed.
func (p *Projection) Build(ctx context.Context, processID string) (View, error) {
	rec, _, err := p.store.Get(ctx, processID)
	if err != nil {
		return View{}, err
	}

	links := make([]string, 0, len(rec.Images))
	for _, key := range rec.Images {
		link, err := p.linker.Link(ctx, key)
		if err != nil {
			return View{}, fmt.Errorf("link %s: %w", key, err)
		}
		links = append(links, link)
	}

	return View{
		ProcessID:     rec.ProcessID,
		CreatedAt:     rec.CreatedAt,
		Status:        rec.Status,
		ExpectedCount: rec.ExpectedCount,
		ImageLinks:    links,
		Errors:        append([]string{}, rec.Errors...),
	}, nil
}
