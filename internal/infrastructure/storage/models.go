package storage

import (
	"errors"
	"time"

	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// RunStatus is the lifecycle state of a stored run
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run represents one reconciliation run
type Run struct {
	ID           string     `json:"id"`
	Mode         string     `json:"mode"`
	LeftName     string     `json:"left_name"`
	RightName    string     `json:"right_name"`
	Status       RunStatus  `json:"status"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	TotalRecords int        `json:"total_records"`
	Pairs        int        `json:"pairs"`
	Invalid      int        `json:"invalid"`
	SummaryJSON  string     `json:"-"`
}

// RunTotals are written when a run completes
type RunTotals struct {
	TotalRecords int
	Pairs        int
	Invalid      int
	SummaryJSON  string
}

// RecordFilter defines filters for listing records of a run
type RecordFilter struct {
	RunID  string        // Required
	Side   record.Side   // Filter by side (empty = all)
	Status record.Status // Filter by status (empty = all)
	Search string        // Substring of narration, reference or helper keys
	Limit  int           // Max results (0 = default 100, capped at 1000)
	Offset int           // Pagination offset
}

// Pagination defaults
const (
	DefaultRecordLimit = 100
	MaxRecordLimit     = 1000
)

// normalized returns the filter with limit and offset clamped.
func (f RecordFilter) normalized() RecordFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultRecordLimit
	}
	if f.Limit > MaxRecordLimit {
		f.Limit = MaxRecordLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// RecordPage contains paginated record results
type RecordPage struct {
	Records    []*record.Record `json:"records"`
	TotalCount int              `json:"total_count"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}
