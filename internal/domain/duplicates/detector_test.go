package duplicates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
)

func classified(id, reference string, amount float64, status record.Status) *record.Record {
	return &record.Record{
		ID:           id,
		Reference:    reference,
		SignedAmount: amount,
		Side:         record.SideReference,
		Status:       status,
	}
}

func TestAmountAndReference(t *testing.T) {
	sig, ok := AmountAndReference(&record.Record{SignedAmount: 200, Reference: " R1 "})
	assert.True(t, ok)
	assert.Equal(t, "200|R1", sig)

	_, ok = AmountAndReference(&record.Record{SignedAmount: 200})
	assert.False(t, ok, "records without a reference are excluded")
}

func TestAmountAndNarration(t *testing.T) {
	a, _ := AmountAndNarration(&record.Record{SignedAmount: -5, NormalizedNarration: "atm fee"})
	b, _ := AmountAndNarration(&record.Record{SignedAmount: -5, NormalizedNarration: "ATM FEE"})

	assert.Equal(t, a, b)
	assert.Equal(t, "-5|ATM FEE", a)
}

func TestDetector_ScenarioC(t *testing.T) {
	t.Run("a single reference row is not a duplicate", func(t *testing.T) {
		// Arrange
		refs := []*record.Record{classified("r1", "R1", 200, record.StatusMatched)}

		// Act
		flagged := NewDetector(nil, "").Detect(refs)

		// Assert
		assert.Empty(t, flagged)
		assert.Equal(t, record.StatusMatched, refs[0].Status)
	})

	t.Run("two reference rows with the same signature are both flagged", func(t *testing.T) {
		// Arrange
		refs := []*record.Record{
			classified("r1", "R1", 200, record.StatusMatched),
			classified("r2", "R2", 200, record.StatusPendingCredit),
			classified("r3", "R1", 200, record.StatusPendingCredit),
		}

		// Act
		flagged := NewDetector(nil, "").Detect(refs)

		// Assert
		require.Len(t, flagged, 2)
		assert.Equal(t, "r1", flagged[0].ID)
		assert.Equal(t, "r3", flagged[1].ID)
		for _, r := range flagged {
			assert.Equal(t, record.StatusDuplicate, r.Status)
			assert.Equal(t, DefaultRemark, r.Remark)
			assert.Empty(t, r.MatchedWith)
		}
		assert.Equal(t, record.StatusPendingCredit, refs[1].Status)
	})
}

func TestDetector_OverridesEveryClassifiedStatus(t *testing.T) {
	statuses := []record.Status{
		record.StatusMatched,
		record.StatusPendingDebit,
		record.StatusPendingCredit,
		record.StatusPendingPost,
		record.StatusMismatch,
		record.StatusDuplicate,
	}

	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			a := classified("a", "R1", 10, status)
			b := classified("b", "R1", 10, record.StatusMatched)

			NewDetector(nil, "").Detect([]*record.Record{a, b})

			assert.Equal(t, record.StatusDuplicate, a.Status)
		})
	}
}

func TestDetector_Symmetric(t *testing.T) {
	// Arrange
	a := classified("a", "R9", 75, record.StatusMatched)
	b := classified("b", "R9", 75, record.StatusPendingPost)
	forward := []*record.Record{a, b}

	c := classified("a", "R9", 75, record.StatusMatched)
	d := classified("b", "R9", 75, record.StatusPendingPost)
	backward := []*record.Record{d, c}

	// Act
	NewDetector(nil, "").Detect(forward)
	NewDetector(nil, "").Detect(backward)

	// Assert
	assert.Equal(t, a.Status, b.Status)
	assert.Equal(t, c.Status, d.Status)
	assert.Equal(t, record.StatusDuplicate, a.Status)
	assert.Equal(t, record.StatusDuplicate, d.Status)
}

func TestDetector_Exclusions(t *testing.T) {
	t.Run("empty references never collide", func(t *testing.T) {
		recs := []*record.Record{
			classified("a", "", 10, record.StatusMatched),
			classified("b", "", 10, record.StatusMatched),
		}

		assert.Empty(t, NewDetector(nil, "").Detect(recs))
	})

	t.Run("nil records are ignored", func(t *testing.T) {
		recs := []*record.Record{nil, classified("a", "R1", 1, record.StatusMatched), nil}

		assert.Empty(t, NewDetector(nil, "").Detect(recs))
	})

	t.Run("unclassified records are not flagged", func(t *testing.T) {
		a := classified("a", "R1", 1, record.StatusUnclassified)
		b := classified("b", "R1", 1, record.StatusMatched)

		flagged := NewDetector(nil, "").Detect([]*record.Record{a, b})

		require.Len(t, flagged, 1)
		assert.Equal(t, record.StatusUnclassified, a.Status)
	})
}

func TestDetector_CustomIdentityAndRemark(t *testing.T) {
	recs := []*record.Record{
		{ID: "a", SignedAmount: 5, NormalizedNarration: "ATM FEE", Status: record.StatusPendingDebit},
		{ID: "b", SignedAmount: 5, NormalizedNarration: "atm fee", Status: record.StatusPendingDebit},
		{ID: "c", SignedAmount: 6, NormalizedNarration: "ATM FEE", Status: record.StatusPendingDebit},
	}

	flagged := NewDetector(AmountAndNarration, "duplicate in ledger").Detect(recs)

	require.Len(t, flagged, 2)
	assert.Equal(t, "duplicate in ledger", recs[0].Remark)
	assert.Equal(t, record.StatusPendingDebit, recs[2].Status)
}

func TestIdentityByName(t *testing.T) {
	narration := &record.Record{SignedAmount: 5, NormalizedNarration: "fee", Reference: "R9"}

	for _, name := range []string{"", "reference", " Reference "} {
		fn, err := IdentityByName(name)
		require.NoError(t, err)
		sig, _ := fn(narration)
		assert.Equal(t, "5|R9", sig, "name %q", name)
	}

	fn, err := IdentityByName("narration")
	require.NoError(t, err)
	sig, _ := fn(narration)
	assert.Equal(t, "5|FEE", sig)

	_, err = IdentityByName("amount")
	assert.ErrorIs(t, err, record.ErrInvalidInput)
}
