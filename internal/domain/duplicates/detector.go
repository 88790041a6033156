// Package duplicates flags records whose identity signature occurs more than
// once within one record set.
//
// Detection is a single counting pass over the set. A flagged record moves to
// the terminal duplicate status regardless of what the matchers decided for
// it. Detection runs after matching: duplicate is only reachable from a
// classified state, so unclassified records are counted but never flagged.
package duplicates

import (
	"fmt"
	"strings"

	"github.com/eshaffer321/backoffice-recon/internal/domain/normalizer"
	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
)

// DefaultRemark is written on every flagged record.
const DefaultRemark = "duplicate in reference set"

// IdentityFunc returns a record's signature. ok=false excludes the record
// from detection.
type IdentityFunc func(r *record.Record) (sig string, ok bool)

// Identity names accepted by IdentityByName
const (
	IdentityReference = "reference"
	IdentityNarration = "narration"
)

// IdentityByName resolves a configured identity name. An empty name selects
// AmountAndReference.
func IdentityByName(name string) (IdentityFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", IdentityReference:
		return AmountAndReference, nil
	case IdentityNarration:
		return AmountAndNarration, nil
	default:
		return nil, fmt.Errorf("unknown duplicate identity %q: %w", name, record.ErrInvalidInput)
	}
}

// AmountAndReference identifies records by signed amount and reference
// number. Records without a reference are excluded.
func AmountAndReference(r *record.Record) (string, bool) {
	ref := strings.TrimSpace(r.Reference)
	if ref == "" {
		return "", false
	}
	return normalizer.FormatAmount(r.SignedAmount) + "|" + ref, true
}

// AmountAndNarration identifies records by signed amount and upper-cased
// normalized narration.
func AmountAndNarration(r *record.Record) (string, bool) {
	return normalizer.FormatAmount(r.SignedAmount) + "|" + strings.ToUpper(r.NormalizedNarration), true
}

// Detector flags duplicate records
type Detector struct {
	identity IdentityFunc
	remark   string
}

// NewDetector creates a detector. A nil identity uses AmountAndReference and
// an empty remark uses DefaultRemark.
func NewDetector(identity IdentityFunc, remark string) *Detector {
	if identity == nil {
		identity = AmountAndReference
	}
	if remark == "" {
		remark = DefaultRemark
	}
	return &Detector{identity: identity, remark: remark}
}

// Detect flags every record sharing its signature with another record in the
// set and returns the flagged records in input order. Nil records are
// ignored.
func (d *Detector) Detect(records []*record.Record) []*record.Record {
	sigs := make([]string, len(records))
	included := make([]bool, len(records))
	counts := make(map[string]int, len(records))

	for i, r := range records {
		if r == nil {
			continue
		}
		sig, ok := d.identity(r)
		if !ok {
			continue
		}
		sigs[i], included[i] = sig, true
		counts[sig]++
	}

	var flagged []*record.Record
	for i, r := range records {
		if !included[i] || counts[sigs[i]] < 2 {
			continue
		}
		if err := r.Classify(record.StatusDuplicate, d.remark); err != nil {
			continue
		}
		flagged = append(flagged, r)
	}

	return flagged
}
