// internal/record/store.go
package record

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no record exists for the process id.
	ErrNotFound = errors.New("process record not found")
	// ErrConflict means the version token was stale (another writer got there
	// first) or the record already existed on create. Callers re-read and
	// retry; this is never a fatal condition by itself.
	ErrConflict = errors.New("process record version conflict")
)

// Store is a key/value record store with conditional writes. Get returns the
// current record plus an opaque version token; Update succeeds only while that
// token is still current.
type Store interface {
	// Create writes the initial record and fails with ErrConflict if one
	// already exists for the process id.
	Create(ctx context.Context, rec ProcessRecord) error

	// Get returns the current record and its version token.
	Get(ctx context.Context, processID string) (ProcessRecord, string, error)

	// Update overwrites the record if etag still identifies the stored
	// revision, returning ErrConflict otherwise.
	Update(ctx context.Context, rec ProcessRecord, etag string) error
}
