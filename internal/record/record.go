// internal/record/record.go
package record

import "time"

// Status is derived from the record's contents, never set directly.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusFinished   Status = "finished"
)

// ProcessRecord is the single shared document every worker of a process merges
// its outcome into. Images and Errors only ever grow; every mutation after
// creation goes through a conditional write keyed by the store's version token.
type ProcessRecord struct {
	ProcessID     string    `json:"process_id"`
	CreatedAt     time.Time `json:"created_at"`
	ExpectedCount int       `json:"expected_count"`
	Images        []string  `json:"images"`
	Errors        []string  `json:"errors"`
	Status        Status    `json:"status"`
}

func New(processID string, now time.Time) ProcessRecord {
	return ProcessRecord{
		ProcessID: processID,
		CreatedAt: now.UTC(),
		Images:    []string{},
		Errors:    []string{},
		Status:    StatusQueued,
	}
}

// AddImage appends an asset key, keeping set semantics: a key already present
// is ignored so redelivered jobs merge idempotently. Reports whether the
// record changed.
func (r *ProcessRecord) AddImage(key string) bool {
	for _, existing := range r.Images {
		if existing == key {
			return false
		}
	}
	r.Images = append(r.Images, key)
	r.Status = r.derive()
	return true
}

// AddError appends a failure description. Errors are not deduplicated: each
// failed attempt is one entry.
func (r *ProcessRecord) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Status = r.derive()
}

// SetExpectedCount fixes the fan-out width. It only takes effect while the
// count is unset; the first dispatch pass wins and the value never decreases.
// Reports whether the record changed.
func (r *ProcessRecord) SetExpectedCount(n int) bool {
	if r.ExpectedCount != 0 || n <= 0 {
		return false
	}
	r.ExpectedCount = n
	r.Status = r.derive()
	return true
}

func (r *ProcessRecord) derive() Status {
	if r.ExpectedCount > 0 && len(r.Images) == r.ExpectedCount {
		return StatusFinished
	}
	if len(r.Images) > 0 || len(r.Errors) > 0 {
		return StatusProcessing
	}
	return StatusQueued
}

// Clone returns a deep copy so a merge attempt never mutates state shared with
// a previous read.
func (r ProcessRecord) Clone() ProcessRecord {
	out := r
	out.Images = append([]string(nil), r.Images...)
	out.Errors = append([]string(nil), r.Errors...)
	return out
}
