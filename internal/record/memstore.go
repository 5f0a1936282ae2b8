// internal/record/memstore.go
package record

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// MemStore is an in-memory Store with the same conditional-write semantics as
// the S3 backend. Used for local runs and tests.
type MemStore struct {
	mu   sync.Mutex
	recs map[string]memEntry
}

type memEntry struct {
	rec  ProcessRecord
	etag string
	rev  int
}

func NewMemStore() *MemStore {
	return &MemStore{recs: make(map[string]memEntry)}
}

func (s *MemStore) Create(ctx context.Context, rec ProcessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[rec.ProcessID]; ok {
		return fmt.Errorf("create %s: %w", rec.ProcessID, ErrConflict)
	}
	s.recs[rec.ProcessID] = memEntry{rec: rec.Clone(), etag: "1", rev: 1}
	return nil
}

func (s *MemStore) Get(ctx context.Context, processID string) (ProcessRecord, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.recs[processID]
	if !ok {
		return ProcessRecord{}, "", fmt.Errorf("get %s: %w", processID, ErrNotFound)
	}
	return entry.rec.Clone(), entry.etag, nil
}

func (s *MemStore) Update(ctx context.Context, rec ProcessRecord, etag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.recs[rec.ProcessID]
	if !ok {
		return fmt.Errorf("update %s: %w", rec.ProcessID, ErrNotFound)
	}
	if entry.etag != etag {
		return fmt.Errorf("update %s: %w", rec.ProcessID, ErrConflict)
	}
	entry.rec = rec.Clone()
	entry.rev++
	entry.etag = strconv.Itoa(entry.rev)
	s.recs[rec.ProcessID] = entry
	return nil
}
