// Package record defines the canonical transaction record shared by every
// stage of a reconciliation run, and the status state machine records move
// through.
//
// A Record is created once per source row by the normalizer, enriched with
// its helper keys at creation time, and afterwards mutated only through the
// classification methods below:
//
//	unclassified -> matched | pending_debit | pending_credit | pending_post | mismatch
//	any non-initial status -> duplicate (terminal)
package record

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a true defect in the input handed to the engine,
	// such as a nil record where one is required.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition is returned when a status change would break the
	// one-directional state machine.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Side identifies which record set a record came from for a given run.
type Side string

const (
	SideUnset     Side = ""
	SideDebit     Side = "debit"
	SideCredit    Side = "credit"
	SideTicket    Side = "ticket"
	SideReference Side = "reference"
)

// Valid reports whether s is an assigned, known side.
func (s Side) Valid() bool {
	switch s {
	case SideDebit, SideCredit, SideTicket, SideReference:
		return true
	}
	return false
}

// Status is the classification of a record within a run.
type Status string

const (
	StatusUnclassified  Status = "unclassified"
	StatusMatched       Status = "matched"
	StatusPendingDebit  Status = "pending_debit"
	StatusPendingCredit Status = "pending_credit"
	StatusPendingPost   Status = "pending_post"
	StatusDuplicate     Status = "duplicate"
	StatusMismatch      Status = "mismatch"
)

// Statuses lists every status in reporting order.
var Statuses = []Status{
	StatusUnclassified,
	StatusMatched,
	StatusPendingDebit,
	StatusPendingCredit,
	StatusPendingPost,
	StatusMismatch,
	StatusDuplicate,
}

// IsPending reports whether s is one of the pending classifications.
func (s Status) IsPending() bool {
	return s == StatusPendingDebit || s == StatusPendingCredit || s == StatusPendingPost
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Record is the canonical transaction record.
type Record struct {
	ID  string `json:"id"`
	Row int    `json:"row"`

	Date                string `json:"date"`
	Narration           string `json:"narration"`
	NormalizedNarration string `json:"normalized_narration"`
	Reference           string `json:"reference,omitempty"`

	OriginalAmountText string  `json:"original_amount_text"`
	SignedAmount       float64 `json:"signed_amount"`
	IsNegative         bool    `json:"is_negative"`

	First15    string `json:"first15"`
	Last15     string `json:"last15"`
	HelperKey1 string `json:"helper_key1"`
	HelperKey2 string `json:"helper_key2"`

	Side        Side   `json:"side"`
	Status      Status `json:"status"`
	MatchedWith string `json:"matched_with,omitempty"`
	Remark      string `json:"remark,omitempty"`
}

// SetSide assigns the record's side. A side cannot change once assigned.
func (r *Record) SetSide(side Side) error {
	if r.Side != SideUnset && r.Side != side {
		return fmt.Errorf("record %s already on side %q: %w", r.ID, r.Side, ErrInvalidInput)
	}
	r.Side = side
	return nil
}

// CanTransition reports whether the record may move to the given status.
// Re-applying the current status is always allowed.
func (r *Record) CanTransition(to Status) bool {
	from := r.Status
	if from == "" {
		from = StatusUnclassified
	}

	switch {
	case from == to:
		return true
	case to == StatusUnclassified:
		return false
	case to == StatusDuplicate:
		return from != StatusUnclassified
	case from == StatusUnclassified:
		return true
	default:
		return false
	}
}

// Classify moves the record to a new status with an optional remark.
func (r *Record) Classify(to Status, remark string) error {
	if !r.CanTransition(to) {
		return fmt.Errorf("record %s: %s -> %s: %w", r.ID, r.Status, to, ErrInvalidTransition)
	}
	r.Status = to
	r.Remark = remark
	if to != StatusMatched {
		r.MatchedWith = ""
	}
	return nil
}

// MatchWith classifies the record as matched against other.
func (r *Record) MatchWith(other *Record) error {
	if err := r.Classify(StatusMatched, ""); err != nil {
		return err
	}
	r.MatchedWith = other.ID
	return nil
}

// Reset clears the classification so the record can take part in a new
// classification pass. Identity, side and keys are untouched.
func (r *Record) Reset() {
	r.Status = StatusUnclassified
	r.MatchedWith = ""
	r.Remark = ""
}

// Invalid describes a record that could not be processed.
type Invalid struct {
	Position int
	Err      error
}

// NewInvalid reports a nil or malformed record at position.
func NewInvalid(position int, what string) Invalid {
	return Invalid{
		Position: position,
		Err:      fmt.Errorf("%s at position %d: %w", what, position, ErrInvalidInput),
	}
}
