// pkg/schema/messages.go
package schema

import (
	"errors"
	"fmt"
)

// DispatchRequested asks the dispatcher to fan a process out into station jobs.
// Exactly one is published per submitted process.
type DispatchRequested struct {
	ProcessID  string `json:"process_id"`
	HappenedAt int64  `json:"happened_at"`
}

func (m DispatchRequested) Validate() error {
	if m.ProcessID == "" {
		return errors.New("dispatch message missing process_id")
	}
	return nil
}

// StationJob is one unit of fan-out work: render a snapshot image for a single
// weather station and merge the outcome into the process record. ExpectedCount
// is the total number of jobs dispatched for the process, carried in every job
// so a worker can evaluate completion without re-reading dispatch-time state.
type StationJob struct {
	ProcessID     string  `json:"process_id"`
	JobIndex      int     `json:"job_index"`
	ExpectedCount int     `json:"expected_count"`
	StationID     int     `json:"station_id"`
	StationName   string  `json:"station_name"`
	Description   string  `json:"description"`
	Temperature   float64 `json:"temperature"`
	HappenedAt    int64   `json:"happened_at"`
}

func (m StationJob) Validate() error {
	if m.ProcessID == "" {
		return errors.New("station job missing process_id")
	}
	if m.StationID <= 0 {
		return fmt.Errorf("station job has invalid station_id %d", m.StationID)
	}
	if m.ExpectedCount <= 0 {
		return fmt.Errorf("station job has invalid expected_count %d", m.ExpectedCount)
	}
	if m.JobIndex < 0 || m.JobIndex >= m.ExpectedCount {
		return fmt.Errorf("station job index %d out of range for expected_count %d", m.JobIndex, m.ExpectedCount)
	}
	return nil
}
