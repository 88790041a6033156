package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	mu      sync.Mutex
	runs    map[string]*Run
	records map[string][]*record.Record // Keyed by run ID

	// Hooks for test assertions
	CreateRunCalled   bool
	SaveRecordsCalled bool
	FailRunCalled     bool
	LastFailCause     string

	// Error injection for testing error paths
	CreateRunErr     error
	CompleteRunErr   error
	FailRunErr       error
	GetRunErr        error
	ListRunsErr      error
	SaveRecordsErr   error
	QueryRecordsErr  error
	CountByStatusErr error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs:    make(map[string]*Run),
		records: make(map[string][]*record.Record),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// CreateRun stores a copy of the run
func (m *MockRepository) CreateRun(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateRunCalled = true
	if m.CreateRunErr != nil {
		return m.CreateRunErr
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = RunRunning
	}
	copied := *run
	m.runs[run.ID] = &copied
	return nil
}

// CompleteRun marks the run completed
func (m *MockRepository) CompleteRun(_ context.Context, runID string, totals RunTotals) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CompleteRunErr != nil {
		return m.CompleteRunErr
	}
	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	now := time.Now().UTC()
	run.Status = RunCompleted
	run.CompletedAt = &now
	run.TotalRecords = totals.TotalRecords
	run.Pairs = totals.Pairs
	run.Invalid = totals.Invalid
	run.SummaryJSON = totals.SummaryJSON
	return nil
}

// FailRun marks the run failed
func (m *MockRepository) FailRun(_ context.Context, runID string, cause string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FailRunCalled = true
	m.LastFailCause = cause
	if m.FailRunErr != nil {
		return m.FailRunErr
	}
	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	now := time.Now().UTC()
	run.Status = RunFailed
	run.Error = cause
	run.CompletedAt = &now
	return nil
}

// GetRun returns a copy of the run
func (m *MockRepository) GetRun(_ context.Context, runID string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetRunErr != nil {
		return nil, m.GetRunErr
	}
	run, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	copied := *run
	return &copied, nil
}

// ListRuns returns runs newest first
func (m *MockRepository) ListRuns(_ context.Context, limit int) ([]*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListRunsErr != nil {
		return nil, m.ListRunsErr
	}
	if limit <= 0 {
		limit = 50
	}

	runs := make([]*Run, 0, len(m.runs))
	for _, run := range m.runs {
		copied := *run
		runs = append(runs, &copied)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// SaveRecords stores copies of the records
func (m *MockRepository) SaveRecords(_ context.Context, runID string, records []*record.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveRecordsCalled = true
	if m.SaveRecordsErr != nil {
		return m.SaveRecordsErr
	}
	for _, r := range records {
		if r == nil {
			continue
		}
		// Deep copy to avoid test mutations
		copied := *r
		m.records[runID] = append(m.records[runID], &copied)
	}
	return nil
}

// QueryRecords filters stored records the way the SQLite implementation does
func (m *MockRepository) QueryRecords(_ context.Context, filter RecordFilter) (*RecordPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.QueryRecordsErr != nil {
		return nil, m.QueryRecordsErr
	}
	return FilterRecords(m.records[filter.RunID], filter), nil
}

// CountByStatus counts stored records per status
func (m *MockRepository) CountByStatus(_ context.Context, runID string) (map[record.Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CountByStatusErr != nil {
		return nil, m.CountByStatusErr
	}
	counts := make(map[record.Status]int)
	for _, r := range m.records[runID] {
		counts[r.Status]++
	}
	return counts, nil
}
