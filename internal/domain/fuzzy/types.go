package fuzzy

import (
	"fmt"

	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
)

const (
	// DefaultThreshold is the score below which a reference counts as similar.
	DefaultThreshold = 0.3

	// DefaultMaxComparisons caps tickets x references for one run.
	DefaultMaxComparisons = 25_000_000
)

// Remarks written on classified tickets.
const (
	RemarkMissing       = "missing in reference set"
	RemarkAmount        = "amount mismatch"
	RemarkDate          = "date mismatch"
	RemarkAmountAndDate = "amount and date mismatch"
)

// Config holds fuzzy matcher configuration
type Config struct {
	Threshold      float64 // 0 = identical .. 1 = unrelated (default: 0.3)
	MaxComparisons int     // Ceiling enforced by callers before Match (default: 25M)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Threshold:      DefaultThreshold,
		MaxComparisons: DefaultMaxComparisons,
	}
}

// Validate rejects thresholds outside (0, 1]. Scores must be strictly below
// the threshold, so 0 or less would never match.
func (c Config) Validate() error {
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("fuzzy threshold must be within (0, 1], got %v: %w", c.Threshold, record.ErrInvalidInput)
	}
	return nil
}

// Outcome is the resolution of one ticket.
type Outcome struct {
	Ticket    *record.Record
	Reference *record.Record // nil when nothing scored below the threshold
	Score     float64        // Best score seen, 1 when there were no references
}

// Result contains the outcome of one Match call
type Result struct {
	Outcomes []Outcome
	Invalid  []record.Invalid
}
