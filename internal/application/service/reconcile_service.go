package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/eshaffer321/backoffice-recon/internal/adapters/tabular"
	"github.com/eshaffer321/backoffice-recon/internal/domain/reconcile"
	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/logging"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/storage"
)

var (
	// ErrTooLarge is returned when a ticket run would exceed the fuzzy
	// comparison ceiling.
	ErrTooLarge = errors.New("input too large")

	// ErrNotFound is returned for runs that are neither stored nor cached.
	ErrNotFound = storage.ErrNotFound
)

// DefaultCacheTTL is how long unpersisted runs stay readable.
const DefaultCacheTTL = 30 * time.Minute

// Source reads an uploaded file into raw rows.
type Source interface {
	Read(ctx context.Context, name string, r io.Reader) ([]record.RawRow, error)
}

// Input is one side of a reconciliation request.
type Input struct {
	Name   string // File name, its extension selects the format
	Reader io.Reader
}

// Request holds parameters for one reconciliation.
type Request struct {
	Mode  string // "ledger" or "ticket"
	Left  Input  // Debits or tickets
	Right Input  // Credits or references
	Save  bool   // Persist the run and its records
}

// Run is a finished reconciliation.
type Run struct {
	ID          string
	Mode        reconcile.Mode
	LeftName    string
	RightName   string
	StartedAt   time.Time
	CompletedAt time.Time
	Outcome     *reconcile.Outcome
	Persisted   bool
}

// Info projects the run onto the stored run shape.
func (r *Run) Info() *storage.Run {
	completed := r.CompletedAt
	info := &storage.Run{
		ID:          r.ID,
		Mode:        string(r.Mode),
		LeftName:    r.LeftName,
		RightName:   r.RightName,
		Status:      storage.RunCompleted,
		StartedAt:   r.StartedAt,
		CompletedAt: &completed,
	}
	if r.Outcome != nil {
		info.TotalRecords = r.Outcome.Summary.Total
		info.Pairs = r.Outcome.Summary.Pairs
		info.Invalid = r.Outcome.Summary.Invalid
	}
	return info
}

// ReconcileService runs reconciliations and serves their results.
type ReconcileService struct {
	engine  *reconcile.Engine
	source  Source
	storage storage.Repository
	cache   *cache.Cache
	logger  *slog.Logger
	now     func() time.Time
}

// NewReconcileService creates a new reconcile service. store may be nil, in
// which case runs are only kept in the cache.
func NewReconcileService(
	engine *reconcile.Engine,
	source Source,
	store storage.Repository,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *ReconcileService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ReconcileService{
		engine:  engine,
		source:  source,
		storage: store,
		cache:   cache.New(cacheTTL, 2*cacheTTL),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile reads both inputs, classifies every record and persists the run
// when requested. A persistence failure does not fail the call: the run is
// cached instead and Persisted is false.
func (s *ReconcileService) Reconcile(ctx context.Context, req Request) (*Run, error) {
	mode, err := reconcile.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	if req.Left.Reader == nil || req.Right.Reader == nil {
		return nil, fmt.Errorf("both inputs are required: %w", record.ErrInvalidInput)
	}

	leftRows, err := s.source.Read(ctx, req.Left.Name, req.Left.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", req.Left.Name, err)
	}
	rightRows, err := s.source.Read(ctx, req.Right.Name, req.Right.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", req.Right.Name, err)
	}

	if mode == reconcile.ModeTicket && s.engine.Fuzzy().Exceeds(len(leftRows), len(rightRows)) {
		return nil, fmt.Errorf("%d tickets x %d references exceeds %d comparisons: %w",
			len(leftRows), len(rightRows), s.engine.Fuzzy().Config().MaxComparisons, ErrTooLarge)
	}

	run := &Run{
		ID:        uuid.NewString(),
		Mode:      mode,
		LeftName:  req.Left.Name,
		RightName: req.Right.Name,
		StartedAt: s.now(),
	}
	log := logging.WithRun(s.logger, run.ID)
	log.Info("reconciliation started",
		"mode", mode,
		"left_rows", len(leftRows),
		"right_rows", len(rightRows),
	)

	if mode == reconcile.ModeTicket {
		run.Outcome = s.engine.Tickets(leftRows, rightRows)
	} else {
		run.Outcome = s.engine.Ledgers(leftRows, rightRows)
	}
	run.CompletedAt = s.now()
	if b := run.Outcome.Balance; b != nil && !b.Valid {
		log.Warn("side totals do not balance",
			"difference", b.Difference.StringFixed(2),
			"reason", b.Reason,
		)
	}

	if req.Save {
		if err := s.persist(ctx, run); err != nil {
			log.Warn("persistence failed, keeping run in cache", "error", err)
		} else {
			run.Persisted = true
		}
	}
	if !run.Persisted {
		s.cache.SetDefault(run.ID, run)
	}

	summary := run.Outcome.Summary
	log.Info("reconciliation completed",
		"records", summary.Total,
		"pairs", summary.Pairs,
		"invalid", summary.Invalid,
		"persisted", run.Persisted,
		"duration", run.CompletedAt.Sub(run.StartedAt),
	)
	return run, nil
}

// persist writes the run row, its records and the completion totals.
func (s *ReconcileService) persist(ctx context.Context, run *Run) error {
	if s.storage == nil {
		return errors.New("no storage configured")
	}

	info := run.Info()
	info.Status = storage.RunRunning
	info.CompletedAt = nil
	if err := s.storage.CreateRun(ctx, info); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	if err := s.storage.SaveRecords(ctx, run.ID, run.Outcome.Records); err != nil {
		if failErr := s.storage.FailRun(ctx, run.ID, err.Error()); failErr != nil {
			s.logger.Error("failed to mark run failed", "run_id", run.ID, "error", failErr)
		}
		return fmt.Errorf("failed to save records: %w", err)
	}

	summaryJSON, err := json.Marshal(run.Outcome.Summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	err = s.storage.CompleteRun(ctx, run.ID, storage.RunTotals{
		TotalRecords: run.Outcome.Summary.Total,
		Pairs:        run.Outcome.Summary.Pairs,
		Invalid:      run.Outcome.Summary.Invalid,
		SummaryJSON:  string(summaryJSON),
	})
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun returns a stored run, falling back to the cache when the run was
// never persisted or the store cannot be reached.
func (s *ReconcileService) GetRun(ctx context.Context, runID string) (*storage.Run, error) {
	info, _, err := s.lookup(ctx, runID)
	return info, err
}

// lookup resolves a run from the store first and the cache second. The cached
// run is returned alongside whenever it exists, so its records can be served
// even when the store only holds a failed run row.
func (s *ReconcileService) lookup(ctx context.Context, runID string) (*storage.Run, *Run, error) {
	cached, hasCache := s.cached(runID)

	var storeErr error
	if s.storage != nil {
		info, err := s.storage.GetRun(ctx, runID)
		if err == nil {
			return info, cached, nil
		}
		storeErr = err
	}

	if hasCache {
		if storeErr != nil && !errors.Is(storeErr, storage.ErrNotFound) {
			logging.WithRun(s.logger, runID).Warn("store unavailable, serving run from cache", "error", storeErr)
		}
		return cached.Info(), cached, nil
	}
	if storeErr != nil && !errors.Is(storeErr, storage.ErrNotFound) {
		return nil, nil, storeErr
	}
	return nil, nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
}

// Ready reports whether the store answers a query. A service without
// storage is always ready; its runs live in the cache.
func (s *ReconcileService) Ready(ctx context.Context) (persistent bool, err error) {
	if s.storage == nil {
		return false, nil
	}
	if _, err := s.storage.ListRuns(ctx, 1); err != nil {
		return true, fmt.Errorf("storage unavailable: %w", err)
	}
	return true, nil
}

// ListRuns returns stored runs, newest first.
func (s *ReconcileService) ListRuns(ctx context.Context, limit int) ([]*storage.Run, error) {
	if s.storage == nil {
		return []*storage.Run{}, nil
	}
	return s.storage.ListRuns(ctx, limit)
}

// Records returns a page of a run's records from the store, falling back to
// the cache for unpersisted runs.
func (s *ReconcileService) Records(ctx context.Context, filter storage.RecordFilter) (*storage.RecordPage, error) {
	_, cached, err := s.lookup(ctx, filter.RunID)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return storage.FilterRecords(cached.Outcome.Records, filter), nil
	}
	return s.storage.QueryRecords(ctx, filter)
}

// Export writes every record of a run in the given format.
func (s *ReconcileService) Export(ctx context.Context, runID string, format tabular.Format, w io.Writer) error {
	_, cached, err := s.lookup(ctx, runID)
	if err != nil {
		return err
	}

	var records []*record.Record
	if cached != nil {
		records = cached.Outcome.Records
	} else {
		records, err = s.allRecords(ctx, runID)
		if err != nil {
			return err
		}
	}

	if err := tabular.Write(w, format, records); err != nil {
		return fmt.Errorf("failed to export run %s: %w", runID, err)
	}
	return nil
}

// allRecords pages through every stored record of a run.
func (s *ReconcileService) allRecords(ctx context.Context, runID string) ([]*record.Record, error) {
	var all []*record.Record
	filter := storage.RecordFilter{RunID: runID, Limit: storage.MaxRecordLimit}
	for {
		page, err := s.storage.QueryRecords(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to load records: %w", err)
		}
		all = append(all, page.Records...)
		if len(page.Records) == 0 || len(all) >= page.TotalCount {
			return all, nil
		}
		filter.Offset += len(page.Records)
	}
}

func (s *ReconcileService) cached(runID string) (*Run, bool) {
	v, ok := s.cache.Get(runID)
	if !ok {
		return nil, false
	}
	run, ok := v.(*Run)
	return run, ok
}
