package matcher

import "github.com/eshaffer321/backoffice-recon/internal/domain/record"

// Config holds matcher configuration
type Config struct {
	// SecondaryKey enables the HelperKey2 lookup when HelperKey1 finds
	// nothing (default: true).
	SecondaryKey bool
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		SecondaryKey: true,
	}
}

// Pair is one debit matched to one candidate.
type Pair struct {
	Debit  *record.Record
	Credit *record.Record
	Key    string // Helper key the pair was joined on
}

// Result contains the outcome of one Match call
type Result struct {
	Pairs          []Pair
	PendingDebits  []*record.Record
	PendingCredits []*record.Record
	Invalid        []record.Invalid // Skipped debits and candidates
}
