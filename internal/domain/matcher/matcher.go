// Package matcher pairs debit records with credit records on their helper
// keys.
//
// Matching is greedy and first-match:
//   - Debits are processed in input order
//   - A debit takes the earliest unconsumed candidate under HelperKey1,
//     falling back to HelperKey2
//   - A consumed candidate is never offered again within the same call
//   - A candidate whose status forbids matching is passed over
//
// Debits with no candidate end up pending_debit; candidates nobody took end
// up pending_credit.
//
// Example usage:
//
//	idx := matcher.NewIndex(credits)
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	result := m.Match(debits, idx)
//	for _, p := range result.Pairs {
//		// p.Debit.MatchedWith == p.Credit.ID
//	}
package matcher

import (
	"fmt"

	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
)

// Matcher matches debits against an index of credit candidates
type Matcher struct {
	config Config
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	return &Matcher{
		config: config,
	}
}

// Match classifies every debit and every indexed candidate. Records are
// expected to be unclassified; a record whose current status forbids the
// transition is reported in Result.Invalid and left as is.
func (m *Matcher) Match(debits []*record.Record, idx *Index) *Result {
	if idx == nil {
		idx = NewIndex(nil)
	}

	result := &Result{
		Invalid: append([]record.Invalid(nil), idx.Invalid()...),
	}

	// Consumption state is local to this call
	used := make(map[int]bool)
	cursors := make(map[string]int)

	for i, debit := range debits {
		if debit == nil {
			result.Invalid = append(result.Invalid, record.NewInvalid(i, "nil debit"))
			continue
		}

		if !debit.CanTransition(record.StatusMatched) {
			result.Invalid = append(result.Invalid, invalidAt(i, fmt.Errorf(
				"debit %s is %s: %w", debit.ID, debit.Status, record.ErrInvalidTransition)))
			continue
		}

		pos, key, found := m.findCandidate(debit, idx, used, cursors)
		if !found {
			if err := debit.Classify(record.StatusPendingDebit, ""); err != nil {
				result.Invalid = append(result.Invalid, invalidAt(i, err))
				continue
			}
			result.PendingDebits = append(result.PendingDebits, debit)
			continue
		}

		credit := idx.Candidate(pos)
		used[pos] = true
		// Both transitions were checked before pairing
		_ = debit.MatchWith(credit)
		_ = credit.MatchWith(debit)
		result.Pairs = append(result.Pairs, Pair{Debit: debit, Credit: credit, Key: key})
	}

	for pos := 0; pos < idx.Len(); pos++ {
		c := idx.Candidate(pos)
		if c == nil || used[pos] {
			continue
		}
		if err := c.Classify(record.StatusPendingCredit, ""); err != nil {
			result.Invalid = append(result.Invalid, invalidAt(pos, err))
			continue
		}
		result.PendingCredits = append(result.PendingCredits, c)
	}

	return result
}

// findCandidate returns the earliest unconsumed position under HelperKey1,
// then HelperKey2, whose candidate can still become matched. Cursors skip
// consumed and blocked positions so each key list is walked at most once per
// call; a blocked candidate stays blocked for the whole call.
func (m *Matcher) findCandidate(
	debit *record.Record,
	idx *Index,
	used map[int]bool,
	cursors map[string]int,
) (int, string, bool) {
	keys := []string{debit.HelperKey1}
	if m.config.SecondaryKey && debit.HelperKey2 != debit.HelperKey1 {
		keys = append(keys, debit.HelperKey2)
	}

	for _, key := range keys {
		positions := idx.Lookup(key)
		next := cursors[key]
		for next < len(positions) && !available(idx, used, positions[next]) {
			next++
		}
		cursors[key] = next
		if next < len(positions) {
			return positions[next], key, true
		}
	}

	return 0, "", false
}

func available(idx *Index, used map[int]bool, pos int) bool {
	return !used[pos] && idx.Candidate(pos).CanTransition(record.StatusMatched)
}

func invalidAt(position int, err error) record.Invalid {
	return record.Invalid{Position: position, Err: err}
}
