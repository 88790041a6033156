package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/backoffice-recon/internal/domain/duplicates"
	"github.com/eshaffer321/backoffice-recon/internal/domain/fuzzy"
	"github.com/eshaffer321/backoffice-recon/internal/domain/matcher"
	"github.com/eshaffer321/backoffice-recon/internal/domain/normalizer"
	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
	"github.com/eshaffer321/backoffice-recon/internal/domain/validator"
)

// Mode selects the reconciliation path.
type Mode string

const (
	// ModeLedger pairs a debit ledger with a credit ledger on helper keys.
	ModeLedger Mode = "ledger"
	// ModeTicket resolves teller tickets against a reference export by
	// narration similarity.
	ModeTicket Mode = "ticket"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLedger, ModeTicket:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q: %w", s, record.ErrInvalidInput)
	}
}

// Sides returns the left and right sides used by the mode.
func (m Mode) Sides() (record.Side, record.Side) {
	if m == ModeTicket {
		return record.SideTicket, record.SideReference
	}
	return record.SideDebit, record.SideCredit
}

// Options configures an Engine
type Options struct {
	Normalizer normalizer.Config
	Matcher    matcher.Config
	Fuzzy      fuzzy.Config

	// Identity used by duplicate detection (default: amount and reference).
	Identity duplicates.IdentityFunc
}

// DefaultOptions returns sensible defaults
func DefaultOptions() Options {
	return Options{
		Normalizer: normalizer.DefaultConfig(),
		Matcher:    matcher.DefaultConfig(),
		Fuzzy:      fuzzy.DefaultConfig(),
		Identity:   duplicates.AmountAndReference,
	}
}

// Outcome is the full result of one run
type Outcome struct {
	Mode    Mode
	Records []*record.Record // Left side then right side, each in input order

	Pairs          []matcher.Pair  // Ledger mode
	Tickets        []fuzzy.Outcome // Ticket mode
	PendingDebits  []*record.Record
	PendingCredits []*record.Record
	PendingPost    []*record.Record // Ticket mode
	Duplicates     []*record.Record
	Invalid        []record.Invalid

	Summary Summary
	Balance *validator.Balance // Left side total against right side total
}

// Summary rolls up counts and totals of an outcome.
type Summary struct {
	Total      int                               `json:"total"`
	Pairs      int                               `json:"pairs"`
	Invalid    int                               `json:"invalid"`
	ByStatus   map[record.Status]int             `json:"by_status"`
	BySide     map[record.Side]int               `json:"by_side"`
	Amounts    map[record.Status]decimal.Decimal `json:"amounts"`
	SideTotals map[record.Side]decimal.Decimal   `json:"side_totals"`
}

// Summarize counts records per status and side and totals their amounts.
func Summarize(records []*record.Record, pairs, invalid int) Summary {
	s := Summary{
		Pairs:      pairs,
		Invalid:    invalid,
		ByStatus:   make(map[record.Status]int),
		BySide:     make(map[record.Side]int),
		Amounts:    make(map[record.Status]decimal.Decimal),
		SideTotals: make(map[record.Side]decimal.Decimal),
	}

	for _, r := range records {
		if r == nil {
			continue
		}
		amount := decimal.NewFromFloat(r.SignedAmount)
		s.Total++
		s.ByStatus[r.Status]++
		s.BySide[r.Side]++
		s.Amounts[r.Status] = s.Amounts[r.Status].Add(amount)
		s.SideTotals[r.Side] = s.SideTotals[r.Side].Add(amount)
	}

	return s
}

// Count returns the number of records with the given status.
func (s Summary) Count(status record.Status) int {
	return s.ByStatus[status]
}
