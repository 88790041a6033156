// Package reconcile wires the normalizer, matchers and duplicate detector
// into the two reconciliation paths.
//
// The engine is synchronous and performs no I/O. Each call builds its own
// index and consumption state, so one Engine may serve concurrent runs.
//
// Example usage:
//
//	engine := reconcile.New(reconcile.DefaultOptions())
//	outcome := engine.Ledgers(debitRows, creditRows)
//	fmt.Println(outcome.Summary.Count(record.StatusMatched))
package reconcile

import (
	"github.com/eshaffer321/backoffice-recon/internal/domain/duplicates"
	"github.com/eshaffer321/backoffice-recon/internal/domain/fuzzy"
	"github.com/eshaffer321/backoffice-recon/internal/domain/matcher"
	"github.com/eshaffer321/backoffice-recon/internal/domain/normalizer"
	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
	"github.com/eshaffer321/backoffice-recon/internal/domain/validator"
)

// Remarks used for duplicates flagged on ledger sides.
const (
	RemarkDuplicateDebit  = "duplicate in debit set"
	RemarkDuplicateCredit = "duplicate in credit set"
)

// Engine runs reconciliations
type Engine struct {
	options    Options
	normalizer *normalizer.Normalizer
	matcher    *matcher.Matcher
	fuzzy      *fuzzy.Matcher
}

// New creates an engine with the given options
func New(options Options) *Engine {
	if options.Identity == nil {
		options.Identity = duplicates.AmountAndReference
	}
	return &Engine{
		options:    options,
		normalizer: normalizer.New(options.Normalizer),
		matcher:    matcher.NewMatcher(options.Matcher),
		fuzzy:      fuzzy.NewMatcher(options.Fuzzy),
	}
}

// Normalizer exposes the engine's normalizer.
func (e *Engine) Normalizer() *normalizer.Normalizer {
	return e.normalizer
}

// Fuzzy exposes the engine's fuzzy matcher, mainly for its comparison
// ceiling.
func (e *Engine) Fuzzy() *fuzzy.Matcher {
	return e.fuzzy
}

// Ledgers normalizes both ledgers, pairs debits with credits and flags
// duplicates within each side.
func (e *Engine) Ledgers(debitRows, creditRows []record.RawRow) *Outcome {
	debits := e.normalizer.NormalizeAll(debitRows, record.SideDebit)
	credits := e.normalizer.NormalizeAll(creditRows, record.SideCredit)
	return e.ledgers(debits, credits)
}

// Tickets normalizes tickets and references, resolves each ticket by
// narration similarity and flags duplicates within the reference set.
func (e *Engine) Tickets(ticketRows, referenceRows []record.RawRow) *Outcome {
	tickets := e.normalizer.NormalizeAll(ticketRows, record.SideTicket)
	refs := e.normalizer.NormalizeAll(referenceRows, record.SideReference)
	return e.tickets(tickets, refs)
}

// Reclassify resets every record and classifies the set again. Running it
// twice on the same records yields the same statuses. Records on ticket or
// reference sides go through the ticket path; all others through the ledger
// path.
func (e *Engine) Reclassify(records []*record.Record) *Outcome {
	var debits, credits, tickets, refs []*record.Record
	for _, r := range records {
		if r == nil {
			continue
		}
		r.Reset()
		switch r.Side {
		case record.SideCredit:
			credits = append(credits, r)
		case record.SideTicket:
			tickets = append(tickets, r)
		case record.SideReference:
			refs = append(refs, r)
		default:
			debits = append(debits, r)
		}
	}

	if len(tickets) > 0 || len(refs) > 0 {
		return e.tickets(tickets, refs)
	}
	return e.ledgers(debits, credits)
}

func (e *Engine) ledgers(debits, credits []*record.Record) *Outcome {
	result := e.matcher.Match(debits, matcher.NewIndex(credits))

	dups := duplicates.NewDetector(e.options.Identity, RemarkDuplicateDebit).Detect(debits)
	dups = append(dups, duplicates.NewDetector(e.options.Identity, RemarkDuplicateCredit).Detect(credits)...)

	out := &Outcome{
		Mode:           ModeLedger,
		Records:        concat(debits, credits),
		Pairs:          result.Pairs,
		PendingDebits:  result.PendingDebits,
		PendingCredits: result.PendingCredits,
		Duplicates:     dups,
		Invalid:        result.Invalid,
	}
	out.Summary = Summarize(out.Records, len(out.Pairs), len(out.Invalid))
	out.Balance = validator.ValidateBalance(record.SideDebit, record.SideCredit, out.Records, validator.DefaultTolerance)
	return out
}

func (e *Engine) tickets(tickets, refs []*record.Record) *Outcome {
	result := e.fuzzy.Match(tickets, refs)

	// A reference picked by a matched ticket is matched with the first such
	// ticket; every other reference has no counterpart.
	taken := make(map[*record.Record]bool)
	for _, o := range result.Outcomes {
		if o.Reference == nil || o.Ticket.Status != record.StatusMatched || taken[o.Reference] {
			continue
		}
		if err := o.Reference.MatchWith(o.Ticket); err == nil {
			taken[o.Reference] = true
		}
	}

	var pending []*record.Record
	for i, r := range refs {
		if r == nil || taken[r] {
			continue
		}
		if err := r.Classify(record.StatusPendingCredit, ""); err != nil {
			result.Invalid = append(result.Invalid, record.Invalid{Position: i, Err: err})
			continue
		}
		pending = append(pending, r)
	}

	out := &Outcome{
		Mode:           ModeTicket,
		Records:        concat(tickets, refs),
		Tickets:        result.Outcomes,
		PendingCredits: pending,
		Duplicates:     duplicates.NewDetector(e.options.Identity, duplicates.DefaultRemark).Detect(refs),
		Invalid:        result.Invalid,
	}
	for _, o := range result.Outcomes {
		if o.Ticket.Status == record.StatusPendingPost {
			out.PendingPost = append(out.PendingPost, o.Ticket)
		}
	}
	out.Summary = Summarize(out.Records, len(taken), len(out.Invalid))
	out.Balance = validator.ValidateBalance(record.SideTicket, record.SideReference, out.Records, validator.DefaultTolerance)
	return out
}

func concat(left, right []*record.Record) []*record.Record {
	all := make([]*record.Record, 0, len(left)+len(right))
	for _, r := range left {
		if r != nil {
			all = append(all, r)
		}
	}
	for _, r := range right {
		if r != nil {
			all = append(all, r)
		}
	}
	return all
}
