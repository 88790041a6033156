// Package fuzzy resolves tickets against a reference set by approximate
// narration similarity.
//
// Every ticket is compared with every reference (O(n*m)); callers enforce
// Config.MaxComparisons before calling Match. The lowest-scoring reference
// strictly below the threshold wins, the earliest one on ties. References are
// never consumed, so several tickets may resolve to the same reference, and
// their status is left untouched.
package fuzzy

import (
	"strings"

	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
)

// Matcher matches tickets to references by narration similarity
type Matcher struct {
	config Config
}

// NewMatcher creates a new matcher with the given config. An unset (zero)
// threshold takes the default; other values are used as given, so callers
// accepting user input should check Config.Validate first.
func NewMatcher(config Config) *Matcher {
	if config.Threshold == 0 {
		config.Threshold = DefaultThreshold
	}
	if config.MaxComparisons <= 0 {
		config.MaxComparisons = DefaultMaxComparisons
	}
	return &Matcher{config: config}
}

// Config returns the effective configuration.
func (m *Matcher) Config() Config {
	return m.config
}

// Comparisons returns how many narration comparisons Match would perform.
func Comparisons(tickets, references int) int64 {
	return int64(tickets) * int64(references)
}

// Exceeds reports whether matching the given set sizes would pass the
// configured comparison ceiling.
func (m *Matcher) Exceeds(tickets, references int) bool {
	return Comparisons(tickets, references) > int64(m.config.MaxComparisons)
}

type candidate struct {
	pos    int
	ref    *record.Record
	folded []rune
}

// Match classifies every ticket as matched, mismatch or pending_post.
func (m *Matcher) Match(tickets, references []*record.Record) *Result {
	result := &Result{
		Outcomes: make([]Outcome, 0, len(tickets)),
	}

	refs := make([]candidate, 0, len(references))
	for pos, ref := range references {
		if ref == nil {
			result.Invalid = append(result.Invalid, record.NewInvalid(pos, "nil reference"))
			continue
		}
		refs = append(refs, candidate{pos: pos, ref: ref, folded: []rune(Fold(narrationOf(ref)))})
	}

	for i, ticket := range tickets {
		if ticket == nil {
			result.Invalid = append(result.Invalid, record.NewInvalid(i, "nil ticket"))
			continue
		}

		outcome := m.best(ticket, refs)
		if err := classify(ticket, outcome.Reference); err != nil {
			result.Invalid = append(result.Invalid, record.Invalid{Position: i, Err: err})
			continue
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result
}

// best scans references in order and keeps the first lowest score.
func (m *Matcher) best(ticket *record.Record, refs []candidate) Outcome {
	out := Outcome{Ticket: ticket, Score: 1}
	folded := []rune(Fold(narrationOf(ticket)))

	var closest *record.Record
	for _, c := range refs {
		s := scoreRunes(folded, c.folded)
		if closest == nil || s < out.Score {
			out.Score = s
			closest = c.ref
		}
	}

	if closest != nil && out.Score < m.config.Threshold {
		out.Reference = closest
	}
	return out
}

func classify(ticket, ref *record.Record) error {
	if ref == nil {
		return ticket.Classify(record.StatusPendingPost, RemarkMissing)
	}

	if remark := mismatchRemark(ticket, ref); remark != "" {
		return ticket.Classify(record.StatusMismatch, remark)
	}

	return ticket.MatchWith(ref)
}

func mismatchRemark(ticket, ref *record.Record) string {
	amountDiffers := ticket.SignedAmount != ref.SignedAmount
	dateDiffers := strings.TrimSpace(ticket.Date) != strings.TrimSpace(ref.Date)

	switch {
	case amountDiffers && dateDiffers:
		return RemarkAmountAndDate
	case amountDiffers:
		return RemarkAmount
	case dateDiffers:
		return RemarkDate
	default:
		return ""
	}
}

func narrationOf(r *record.Record) string {
	if r.NormalizedNarration != "" {
		return r.NormalizedNarration
	}
	return r.Narration
}
