package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/backoffice-recon/internal/adapters/tabular"
	"github.com/eshaffer321/backoffice-recon/internal/domain/fuzzy"
	"github.com/eshaffer321/backoffice-recon/internal/domain/reconcile"
	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/storage"
)

// mockSource is a testify mock for the Source seam
type mockSource struct {
	mock.Mock
}

func (m *mockSource) Read(ctx context.Context, name string, r io.Reader) ([]record.RawRow, error) {
	args := m.Called(ctx, name, r)
	rows, _ := args.Get(0).([]record.RawRow)
	return rows, args.Error(1)
}

func ledgerRow(narration, amount string) record.RawRow {
	return record.RawRow{
		{Column: "Date", Value: "2025-01-05"},
		{Column: "Narration", Value: narration},
		{Column: "Amount", Value: amount},
	}
}

func ticketRow(narration, amount, ref string) record.RawRow {
	return append(ledgerRow(narration, amount), record.Cell{Column: "Reference", Value: ref})
}

func newService(source Source, store storage.Repository) *ReconcileService {
	return NewReconcileService(reconcile.New(reconcile.DefaultOptions()), source, store, 0, nil)
}

func ledgerSource() *mockSource {
	source := &mockSource{}
	source.On("Read", mock.Anything, "debits.csv", mock.Anything).Return([]record.RawRow{
		ledgerRow("PAYMENT TO JOHN DOE REF001", "1,000.00"),
		ledgerRow("BANK CHARGES JAN", "(50)"),
	}, nil)
	source.On("Read", mock.Anything, "credits.csv", mock.Anything).Return([]record.RawRow{
		ledgerRow("payment to john doe ref001", "1000"),
	}, nil)
	return source
}

func ledgerRequest(save bool) Request {
	return Request{
		Mode:  "ledger",
		Left:  Input{Name: "debits.csv", Reader: strings.NewReader("")},
		Right: Input{Name: "credits.csv", Reader: strings.NewReader("")},
		Save:  save,
	}
}

func TestReconcileService_Ledger_Persisted(t *testing.T) {
	// Arrange
	ctx := context.Background()
	source := ledgerSource()
	store := storage.NewMockRepository()
	svc := newService(source, store)

	// Act
	run, err := svc.Reconcile(ctx, ledgerRequest(true))

	// Assert
	require.NoError(t, err)
	source.AssertExpectations(t)
	assert.True(t, run.Persisted)
	assert.Equal(t, reconcile.ModeLedger, run.Mode)
	assert.Equal(t, 3, run.Outcome.Summary.Total)
	assert.Equal(t, 1, run.Outcome.Summary.Pairs)
	assert.Equal(t, 2, run.Outcome.Summary.Count(record.StatusMatched))
	assert.Equal(t, 1, run.Outcome.Summary.Count(record.StatusPendingDebit))

	stored, err := svc.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.RunCompleted, stored.Status)
	assert.Equal(t, 3, stored.TotalRecords)
	assert.Equal(t, 1, stored.Pairs)
	assert.Contains(t, stored.SummaryJSON, `"by_status"`)

	page, err := svc.Records(ctx, storage.RecordFilter{RunID: run.ID, Status: record.StatusPendingDebit})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "BANK CHARGES JAN", page.Records[0].Narration)

	runs, err := svc.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestReconcileService_NotSaved(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockRepository()
	svc := newService(ledgerSource(), store)

	run, err := svc.Reconcile(ctx, ledgerRequest(false))

	require.NoError(t, err)
	assert.False(t, run.Persisted)
	assert.False(t, store.CreateRunCalled)

	info, err := svc.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, info.TotalRecords)
}

func TestReconcileService_PersistenceFailureIsFailSoft(t *testing.T) {
	t.Run("records fail to save", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		store := storage.NewMockRepository()
		store.SaveRecordsErr = errors.New("disk full")
		svc := newService(ledgerSource(), store)

		// Act
		run, err := svc.Reconcile(ctx, ledgerRequest(true))

		// Assert
		require.NoError(t, err)
		assert.False(t, run.Persisted)
		assert.True(t, store.FailRunCalled)
		assert.Contains(t, store.LastFailCause, "disk full")

		page, err := svc.Records(ctx, storage.RecordFilter{RunID: run.ID})
		require.NoError(t, err)
		assert.Equal(t, 3, page.TotalCount, "records are served from the cache")
	})

	t.Run("run row fails to create", func(t *testing.T) {
		ctx := context.Background()
		store := storage.NewMockRepository()
		store.CreateRunErr = errors.New("locked")
		svc := newService(ledgerSource(), store)

		run, err := svc.Reconcile(ctx, ledgerRequest(true))

		require.NoError(t, err)
		assert.False(t, run.Persisted)
		assert.False(t, store.SaveRecordsCalled)

		info, err := svc.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, storage.RunCompleted, info.Status)
	})

	t.Run("cached run stays readable while the store is down", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		store := storage.NewMockRepository()
		store.CreateRunErr = errors.New("database is locked")
		store.GetRunErr = errors.New("database is locked")
		svc := newService(ledgerSource(), store)

		// Act
		run, err := svc.Reconcile(ctx, ledgerRequest(true))
		require.NoError(t, err)
		info, getErr := svc.GetRun(ctx, run.ID)
		page, recordsErr := svc.Records(ctx, storage.RecordFilter{RunID: run.ID})
		var buf bytes.Buffer
		exportErr := svc.Export(ctx, run.ID, tabular.FormatCSV, &buf)

		// Assert
		assert.False(t, run.Persisted)
		require.NoError(t, getErr)
		assert.Equal(t, 3, info.TotalRecords)
		require.NoError(t, recordsErr)
		assert.Equal(t, 3, page.TotalCount)
		require.NoError(t, exportErr)
		assert.Contains(t, buf.String(), "BANK CHARGES JAN")
	})

	t.Run("no storage configured", func(t *testing.T) {
		svc := newService(ledgerSource(), nil)

		run, err := svc.Reconcile(context.Background(), ledgerRequest(true))

		require.NoError(t, err)
		assert.False(t, run.Persisted)

		runs, err := svc.ListRuns(context.Background(), 10)
		require.NoError(t, err)
		assert.Empty(t, runs)
	})
}

func TestReconcileService_Tickets(t *testing.T) {
	// Arrange
	source := &mockSource{}
	source.On("Read", mock.Anything, "tickets.xlsx", mock.Anything).Return([]record.RawRow{
		ticketRow("Cash deposit by Ade", "200", ""),
		ticketRow("Cheque lodgement Bola", "300", ""),
	}, nil)
	source.On("Read", mock.Anything, "refs.xlsx", mock.Anything).Return([]record.RawRow{
		ticketRow("CASH DEPOSIT BY ADE", "200", "R1"),
	}, nil)
	svc := newService(source, storage.NewMockRepository())

	// Act
	run, err := svc.Reconcile(context.Background(), Request{
		Mode:  "ticket",
		Left:  Input{Name: "tickets.xlsx", Reader: strings.NewReader("")},
		Right: Input{Name: "refs.xlsx", Reader: strings.NewReader("")},
		Save:  true,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, reconcile.ModeTicket, run.Mode)
	assert.Equal(t, 2, run.Outcome.Summary.Count(record.StatusMatched))
	require.Len(t, run.Outcome.PendingPost, 1)
	assert.Equal(t, fuzzy.RemarkMissing, run.Outcome.PendingPost[0].Remark)
}

func TestReconcileService_Errors(t *testing.T) {
	t.Run("unknown mode", func(t *testing.T) {
		svc := newService(&mockSource{}, nil)

		_, err := svc.Reconcile(context.Background(), Request{Mode: "bogus"})

		assert.ErrorIs(t, err, record.ErrInvalidInput)
	})

	t.Run("missing input", func(t *testing.T) {
		svc := newService(&mockSource{}, nil)

		_, err := svc.Reconcile(context.Background(), Request{
			Mode: "ledger",
			Left: Input{Name: "a.csv", Reader: strings.NewReader("")},
		})

		assert.ErrorIs(t, err, record.ErrInvalidInput)
	})

	t.Run("unreadable input", func(t *testing.T) {
		source := &mockSource{}
		source.On("Read", mock.Anything, "debits.pdf", mock.Anything).Return(nil, tabular.ErrUnsupportedFormat)
		svc := newService(source, nil)

		_, err := svc.Reconcile(context.Background(), Request{
			Mode:  "ledger",
			Left:  Input{Name: "debits.pdf", Reader: strings.NewReader("")},
			Right: Input{Name: "credits.csv", Reader: strings.NewReader("")},
		})

		assert.ErrorIs(t, err, tabular.ErrUnsupportedFormat)
		assert.Contains(t, err.Error(), "debits.pdf")
	})

	t.Run("ticket run over the comparison ceiling", func(t *testing.T) {
		source := &mockSource{}
		source.On("Read", mock.Anything, mock.Anything, mock.Anything).Return([]record.RawRow{
			ticketRow("A", "1", ""), ticketRow("B", "2", ""),
		}, nil)
		options := reconcile.DefaultOptions()
		options.Fuzzy.MaxComparisons = 3
		svc := NewReconcileService(reconcile.New(options), source, nil, 0, nil)

		_, err := svc.Reconcile(context.Background(), Request{
			Mode:  "ticket",
			Left:  Input{Name: "t.csv", Reader: strings.NewReader("")},
			Right: Input{Name: "r.csv", Reader: strings.NewReader("")},
		})

		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("unknown run", func(t *testing.T) {
		svc := newService(&mockSource{}, storage.NewMockRepository())

		_, err := svc.GetRun(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = svc.Records(context.Background(), storage.RecordFilter{RunID: "nope"})
		assert.ErrorIs(t, err, ErrNotFound)

		err = svc.Export(context.Background(), "nope", tabular.FormatCSV, io.Discard)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("store errors are not masked", func(t *testing.T) {
		store := storage.NewMockRepository()
		store.GetRunErr = errors.New("connection reset")
		svc := newService(&mockSource{}, store)

		_, err := svc.GetRun(context.Background(), "run-1")

		assert.EqualError(t, err, "connection reset")
	})
}

func TestReconcileService_Export(t *testing.T) {
	for _, save := range []bool{true, false} {
		name := "cached"
		if save {
			name = "stored"
		}
		t.Run(name, func(t *testing.T) {
			// Arrange
			ctx := context.Background()
			svc := newService(ledgerSource(), storage.NewMockRepository())
			run, err := svc.Reconcile(ctx, ledgerRequest(save))
			require.NoError(t, err)

			// Act
			var buf bytes.Buffer
			err = svc.Export(ctx, run.ID, tabular.FormatCSV, &buf)

			// Assert
			require.NoError(t, err)
			rows, err := csv.NewReader(&buf).ReadAll()
			require.NoError(t, err)
			require.Len(t, rows, 4)
			assert.Equal(t, tabular.Columns, rows[0])
			assert.Equal(t, run.Outcome.Records[0].ID, rows[1][0])
		})
	}
}

func TestReconcileService_Ready(t *testing.T) {
	t.Run("without storage", func(t *testing.T) {
		persistent, err := newService(&mockSource{}, nil).Ready(context.Background())

		assert.False(t, persistent)
		assert.NoError(t, err)
	})

	t.Run("store answers", func(t *testing.T) {
		persistent, err := newService(&mockSource{}, storage.NewMockRepository()).Ready(context.Background())

		assert.True(t, persistent)
		assert.NoError(t, err)
	})

	t.Run("store fails", func(t *testing.T) {
		store := storage.NewMockRepository()
		store.ListRunsErr = errors.New("database is locked")

		persistent, err := newService(&mockSource{}, store).Ready(context.Background())

		assert.True(t, persistent)
		assert.ErrorContains(t, err, "database is locked")
	})
}
