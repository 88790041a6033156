package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
)

func makeRecord(id string, side record.Side, date, narration string, amount float64) *record.Record {
	return &record.Record{
		ID:                  id,
		Date:                date,
		Narration:           narration,
		NormalizedNarration: narration,
		SignedAmount:        amount,
		Side:                side,
		Status:              record.StatusUnclassified,
	}
}

func ticket(id, date, narration string, amount float64) *record.Record {
	return makeRecord(id, record.SideTicket, date, narration, amount)
}

func reference(id, date, narration string, amount float64) *record.Record {
	return makeRecord(id, record.SideReference, date, narration, amount)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "cafe creme", Fold("  Café   CRÈME "))
	assert.Equal(t, "transfer funds abc", Fold("TRANSFER\tFUNDS ABC"))
	assert.Equal(t, "", Fold("   "))
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "TRANSFER FUNDS ABC", "TRANSFER FUNDS ABC", 0},
		{"case and accents ignored", "Café", "CAFE", 0},
		{"both empty", "", "", 0},
		{"one empty", "", "abc", 1},
		{"unrelated", "abc", "xyz", 1},
		{"suffix added", "TRANSFER FUNDS ABC", "TRANSFER FUNDS ABC LTD", 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.a, tt.b), 1e-9)
		})
	}

	t.Run("symmetric", func(t *testing.T) {
		assert.Equal(t, Score("kitten", "sitting"), Score("sitting", "kitten"))
	})
}

func TestMatcher_Matched(t *testing.T) {
	// Arrange
	m := NewMatcher(DefaultConfig())
	tk := ticket("t1", "2025-01-05", "TRANSFER FUNDS ABC", 200)
	ref := reference("r1", "2025-01-05", "TRANSFER FUNDS ABC LTD", 200)

	// Act
	result := m.Match([]*record.Record{tk}, []*record.Record{ref})

	// Assert
	require.Len(t, result.Outcomes, 1)
	assert.Same(t, ref, result.Outcomes[0].Reference)
	assert.Equal(t, record.StatusMatched, tk.Status)
	assert.Equal(t, "r1", tk.MatchedWith)
	assert.Equal(t, record.StatusUnclassified, ref.Status, "references are left to the duplicate detector")
}

func TestMatcher_Mismatch(t *testing.T) {
	tests := []struct {
		name       string
		refDate    string
		refAmount  float64
		wantRemark string
	}{
		{"scenario D: amount differs", "2025-01-05", 250, RemarkAmount},
		{"date differs", "2025-01-06", 200, RemarkDate},
		{"amount and date differ", "2025-01-06", 250, RemarkAmountAndDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			m := NewMatcher(DefaultConfig())
			tk := ticket("t1", "2025-01-05", "TRANSFER FUNDS ABC", 200)
			ref := reference("r1", tt.refDate, "TRANSFER FUNDS ABC LTD", tt.refAmount)

			// Act
			result := m.Match([]*record.Record{tk}, []*record.Record{ref})

			// Assert
			require.Len(t, result.Outcomes, 1)
			assert.Equal(t, record.StatusMismatch, tk.Status)
			assert.Equal(t, tt.wantRemark, tk.Remark)
			assert.Empty(t, tk.MatchedWith)
			assert.Same(t, ref, result.Outcomes[0].Reference)
		})
	}
}

func TestMatcher_PendingPost(t *testing.T) {
	t.Run("scenario E: nothing below threshold", func(t *testing.T) {
		m := NewMatcher(DefaultConfig())
		tk := ticket("t1", "2025-01-05", "CASH DEPOSIT BRANCH 12", 200)
		ref := reference("r1", "2025-01-05", "SALARY PAYMENT MARCH", 200)

		result := m.Match([]*record.Record{tk}, []*record.Record{ref})

		require.Len(t, result.Outcomes, 1)
		assert.Nil(t, result.Outcomes[0].Reference)
		assert.Equal(t, record.StatusPendingPost, tk.Status)
		assert.Equal(t, RemarkMissing, tk.Remark)
	})

	t.Run("empty reference set", func(t *testing.T) {
		m := NewMatcher(DefaultConfig())
		tk := ticket("t1", "2025-01-05", "ANYTHING", 1)

		result := m.Match([]*record.Record{tk}, nil)

		assert.Equal(t, record.StatusPendingPost, tk.Status)
		assert.Equal(t, 1.0, result.Outcomes[0].Score)
	})

	t.Run("score equal to threshold does not match", func(t *testing.T) {
		// 6 insertions over 20 runes = 0.3
		m := NewMatcher(DefaultConfig())
		tk := ticket("t1", "d", "abcdefg", 1)
		ref := reference("r1", "d", "abcdefghijklm", 1)

		result := m.Match([]*record.Record{tk}, []*record.Record{ref})

		assert.InDelta(t, 0.3, result.Outcomes[0].Score, 1e-12)
		assert.Equal(t, record.StatusPendingPost, tk.Status)
	})
}

func TestMatcher_BestAndTies(t *testing.T) {
	t.Run("lowest score wins", func(t *testing.T) {
		m := NewMatcher(DefaultConfig())
		tk := ticket("t1", "d", "TRANSFER FUNDS ABC", 1)
		refs := []*record.Record{
			reference("r1", "d", "TRANSFER FUNDS ABC LIMITED", 1),
			reference("r2", "d", "TRANSFER FUNDS ABC LTD", 1),
		}

		m.Match([]*record.Record{tk}, refs)

		assert.Equal(t, "r2", tk.MatchedWith)
	})

	t.Run("earliest reference wins ties", func(t *testing.T) {
		m := NewMatcher(DefaultConfig())
		tk := ticket("t1", "d", "FEE", 1)
		refs := []*record.Record{
			reference("r1", "d", "fee", 1),
			reference("r2", "d", "FEE", 1),
		}

		m.Match([]*record.Record{tk}, refs)

		assert.Equal(t, "r1", tk.MatchedWith)
	})

	t.Run("references are not consumed", func(t *testing.T) {
		m := NewMatcher(DefaultConfig())
		t1 := ticket("t1", "d", "FEE", 1)
		t2 := ticket("t2", "d", "FEE", 1)
		ref := reference("r1", "d", "FEE", 1)

		m.Match([]*record.Record{t1, t2}, []*record.Record{ref})

		assert.Equal(t, "r1", t1.MatchedWith)
		assert.Equal(t, "r1", t2.MatchedWith)
	})
}

func TestMatcher_InvalidRecords(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	tk := ticket("t1", "d", "FEE", 1)

	result := m.Match([]*record.Record{nil, tk}, []*record.Record{nil, reference("r1", "d", "FEE", 1)})

	require.Len(t, result.Invalid, 2)
	for _, inv := range result.Invalid {
		assert.ErrorIs(t, inv.Err, record.ErrInvalidInput)
	}
	assert.Equal(t, record.StatusMatched, tk.Status)
}

func TestMatcher_Config(t *testing.T) {
	t.Run("zero values fall back to defaults", func(t *testing.T) {
		m := NewMatcher(Config{})

		assert.Equal(t, DefaultConfig(), m.Config())
	})

	t.Run("validate rejects thresholds outside (0, 1]", func(t *testing.T) {
		for _, threshold := range []float64{0, -0.1, 1.01} {
			err := Config{Threshold: threshold}.Validate()
			assert.ErrorIs(t, err, record.ErrInvalidInput, "threshold %v", threshold)
		}
		assert.NoError(t, DefaultConfig().Validate())
		assert.NoError(t, Config{Threshold: 1}.Validate())
	})

	t.Run("negative threshold is kept, not defaulted", func(t *testing.T) {
		m := NewMatcher(Config{Threshold: -0.5})
		tk := ticket("t1", "d", "same", 1)

		m.Match([]*record.Record{tk}, []*record.Record{reference("r1", "d", "same", 1)})

		assert.Equal(t, -0.5, m.Config().Threshold)
		assert.Equal(t, record.StatusPendingPost, tk.Status)
	})

	t.Run("looser threshold matches more", func(t *testing.T) {
		m := NewMatcher(Config{Threshold: 0.5})
		tk := ticket("t1", "d", "abcdefg", 1)
		ref := reference("r1", "d", "abcdefghijklm", 1)

		m.Match([]*record.Record{tk}, []*record.Record{ref})

		assert.Equal(t, record.StatusMatched, tk.Status)
	})

	t.Run("comparison ceiling", func(t *testing.T) {
		m := NewMatcher(Config{MaxComparisons: 100})

		assert.False(t, m.Exceeds(10, 10))
		assert.True(t, m.Exceeds(10, 11))
		assert.Equal(t, int64(50_000*50_000), Comparisons(50_000, 50_000))
	})
}
