package storage

import (
	"context"

	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, in-memory mock)
// and makes testing with mocks straightforward.
type Repository interface {
	RunRepository
	RecordRepository
	Close() error
}

// RunRepository handles run lifecycle tracking
type RunRepository interface {
	// CreateRun inserts a run in the running state
	CreateRun(ctx context.Context, run *Run) error

	// CompleteRun marks a run completed and stores its totals
	CompleteRun(ctx context.Context, runID string, totals RunTotals) error

	// FailRun marks a run failed with the cause
	FailRun(ctx context.Context, runID string, cause string) error

	// GetRun retrieves a run by ID, or ErrNotFound
	GetRun(ctx context.Context, runID string) (*Run, error)

	// ListRuns returns the most recent runs first
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
}

// RecordRepository handles classified record persistence
type RecordRepository interface {
	// SaveRecords stores a run's records in one transaction, in batches
	SaveRecords(ctx context.Context, runID string, records []*record.Record) error

	// QueryRecords returns records matching the filter in run order
	QueryRecords(ctx context.Context, filter RecordFilter) (*RecordPage, error)

	// CountByStatus returns record counts per status for a run
	CountByStatus(ctx context.Context, runID string) (map[record.Status]int, error)
}
