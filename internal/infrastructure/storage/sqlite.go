package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/storage/migrations"
)

// DefaultBatchSize is the number of records per multi-row insert.
const DefaultBatchSize = 500

// SQLite caps bound parameters per statement
const maxSQLVariables = 32000

var recordColumns = []string{
	"run_id", "seq", "id", "row_num", "side", "status", "date", "narration",
	"normalized_narration", "reference", "original_amount_text", "signed_amount",
	"is_negative", "first15", "last15", "helper_key1", "helper_key2", "matched_with", "remark",
}

// Storage provides SQLite database access for runs and records.
// It implements the Repository interface.
type Storage struct {
	db        *sql.DB
	batchSize int
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// Option configures a Storage
type Option func(*Storage)

// WithBatchSize sets the number of records per insert statement.
func WithBatchSize(n int) Option {
	return func(s *Storage) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string, opts ...Option) (*Storage, error) {
	// Foreign keys are per connection in SQLite, so enable them in the DSN
	db, err := sql.Open("sqlite3", withForeignKeys(dbPath))
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db, batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(s)
	}
	if limit := maxSQLVariables / len(recordColumns); s.batchSize > limit {
		s.batchSize = limit
	}

	// Run all pending migrations
	if err := migrations.Up(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func withForeignKeys(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_foreign_keys=on"
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// CreateRun records the start of a run
func (s *Storage) CreateRun(ctx context.Context, run *Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = RunRunning
	}

	query := `
		INSERT INTO runs (id, mode, left_name, right_name, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.Mode, run.LeftName, run.RightName, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create run %s: %w", run.ID, err)
	}
	return nil
}

// CompleteRun records the completion of a run
func (s *Storage) CompleteRun(ctx context.Context, runID string, totals RunTotals) error {
	query := `
		UPDATE runs
		SET completed_at = ?,
		    status = 'completed',
		    total_records = ?,
		    pairs = ?,
		    invalid = ?,
		    summary_json = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		time.Now().UTC(), totals.TotalRecords, totals.Pairs, totals.Invalid, totals.SummaryJSON, runID)
	return expectOneRow(result, err, runID)
}

// FailRun records a failed run
func (s *Storage) FailRun(ctx context.Context, runID string, cause string) error {
	query := `
		UPDATE runs
		SET completed_at = ?, status = 'failed', error = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), cause, runID)
	return expectOneRow(result, err, runID)
}

func expectOneRow(result sql.Result, err error, runID string) error {
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", runID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

const runSelect = `
	SELECT id, mode, left_name, right_name, status, error, started_at, completed_at,
	       total_records, pairs, invalid, summary_json
	FROM runs
`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	run := &Run{}
	var completedAt sql.NullTime
	err := row.Scan(
		&run.ID,
		&run.Mode,
		&run.LeftName,
		&run.RightName,
		&run.Status,
		&run.Error,
		&run.StartedAt,
		&completedAt,
		&run.TotalRecords,
		&run.Pairs,
		&run.Invalid,
		&run.SummaryJSON,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return run, nil
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(ctx context.Context, runID string) (*Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, runSelect+" WHERE id = ?", runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns recent runs, newest first
func (s *Storage) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, runSelect+" ORDER BY started_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	runs := make([]*Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// SaveRecords stores records with multi-row inserts inside one transaction.
// Either every record is stored or none is.
func (s *Storage) SaveRecords(ctx context.Context, runID string, records []*record.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	seq := 0
	batch := make([]*record.Record, 0, s.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		query, args := insertRecords(runID, seq-len(batch), batch)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert records %d-%d: %w", seq-len(batch), seq-1, err)
		}
		batch = batch[:0]
		return nil
	}

	for _, r := range records {
		if r == nil {
			continue
		}
		batch = append(batch, r)
		seq++
		if len(batch) == s.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

func insertRecords(runID string, firstSeq int, batch []*record.Record) (string, []any) {
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(recordColumns)), ", ") + ")"

	var sb strings.Builder
	sb.WriteString("INSERT INTO records (")
	sb.WriteString(strings.Join(recordColumns, ", "))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(batch)*len(recordColumns))
	for i, r := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholder)
		args = append(args,
			runID,
			firstSeq+i,
			r.ID,
			r.Row,
			string(r.Side),
			string(r.Status),
			r.Date,
			r.Narration,
			r.NormalizedNarration,
			r.Reference,
			r.OriginalAmountText,
			r.SignedAmount,
			r.IsNegative,
			r.First15,
			r.Last15,
			r.HelperKey1,
			r.HelperKey2,
			r.MatchedWith,
			r.Remark,
		)
	}

	return sb.String(), args
}

// QueryRecords returns a page of records in run order
func (s *Storage) QueryRecords(ctx context.Context, filter RecordFilter) (*RecordPage, error) {
	filter = filter.normalized()

	where := []string{"run_id = ?"}
	args := []any{filter.RunID}
	if filter.Side != "" {
		where = append(where, "side = ?")
		args = append(args, string(filter.Side))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Search != "" {
		where = append(where, `(narration LIKE ? ESCAPE '\' OR reference LIKE ? ESCAPE '\'
			OR helper_key1 LIKE ? ESCAPE '\' OR helper_key2 LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(filter.Search) + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	page := &RecordPage{
		Records: make([]*record.Record, 0),
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records"+clause, args...).Scan(&page.TotalCount); err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	query := `
		SELECT id, row_num, side, status, date, narration, normalized_narration, reference,
		       original_amount_text, signed_amount, is_negative, first15, last15,
		       helper_key1, helper_key2, matched_with, remark
		FROM records` + clause + " ORDER BY seq ASC LIMIT ? OFFSET ?"

	rows, err := s.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		r := &record.Record{}
		var side, status string
		err := rows.Scan(
			&r.ID,
			&r.Row,
			&side,
			&status,
			&r.Date,
			&r.Narration,
			&r.NormalizedNarration,
			&r.Reference,
			&r.OriginalAmountText,
			&r.SignedAmount,
			&r.IsNegative,
			&r.First15,
			&r.Last15,
			&r.HelperKey1,
			&r.HelperKey2,
			&r.MatchedWith,
			&r.Remark,
		)
		if err != nil {
			return nil, err
		}
		r.Side = record.Side(side)
		r.Status = record.Status(status)
		page.Records = append(page.Records, r)
	}

	return page, rows.Err()
}

// CountByStatus returns record counts per status
func (s *Storage) CountByStatus(ctx context.Context, runID string) (map[record.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM records WHERE run_id = ? GROUP BY status
	`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[record.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[record.Status(status)] = n
	}

	return counts, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
