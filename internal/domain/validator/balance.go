// Package validator checks the control totals of a reconciliation run.
//
// The balance check compares the total of each side of a run. When both
// ledgers are complete the totals agree; a gap beyond the tolerance usually
// means an entry has not posted on one side yet, or was posted twice.
package validator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
)

// DefaultTolerance allows 2 cents for rounding differences.
var DefaultTolerance = decimal.New(2, -2)

// Balance contains the result of comparing the two side totals of a run.
type Balance struct {
	// Valid is true if the totals agree within the tolerance
	Valid bool `json:"valid"`

	LeftSide   record.Side     `json:"left_side"`
	RightSide  record.Side     `json:"right_side"`
	LeftTotal  decimal.Decimal `json:"left_total"`
	RightTotal decimal.Decimal `json:"right_total"`

	// Difference is LeftTotal - RightTotal
	Difference decimal.Decimal `json:"difference"`

	// Reason explains why validation failed (empty if valid)
	Reason string `json:"reason,omitempty"`
}

// ValidateBalance sums the signed amounts of records on each side and
// compares the totals. Records on other sides are ignored.
func ValidateBalance(left, right record.Side, records []*record.Record, tolerance decimal.Decimal) *Balance {
	var leftTotal, rightTotal decimal.Decimal
	for _, r := range records {
		if r == nil {
			continue
		}
		switch r.Side {
		case left:
			leftTotal = leftTotal.Add(decimal.NewFromFloat(r.SignedAmount))
		case right:
			rightTotal = rightTotal.Add(decimal.NewFromFloat(r.SignedAmount))
		}
	}

	b := ValidateTotals(leftTotal, rightTotal, tolerance)
	b.LeftSide = left
	b.RightSide = right
	if !b.Valid {
		b.Reason = reason(left, right, b)
	}
	return b
}

// ValidateTotals compares two totals rounded to cents.
func ValidateTotals(leftTotal, rightTotal, tolerance decimal.Decimal) *Balance {
	leftTotal = leftTotal.Round(2)
	rightTotal = rightTotal.Round(2)
	diff := leftTotal.Sub(rightTotal)

	b := &Balance{
		Valid:      diff.Abs().LessThanOrEqual(tolerance),
		LeftTotal:  leftTotal,
		RightTotal: rightTotal,
		Difference: diff,
	}
	if !b.Valid {
		b.Reason = reason("left", "right", b)
	}
	return b
}

func reason(left, right record.Side, b *Balance) string {
	if b.Difference.IsNegative() {
		return fmt.Sprintf("%s total (%s) is less than %s total (%s) by %s - an entry has likely not posted on the %s side yet",
			left, b.LeftTotal.StringFixed(2), right, b.RightTotal.StringFixed(2), b.Difference.Neg().StringFixed(2), left)
	}
	return fmt.Sprintf("%s total (%s) exceeds %s total (%s) by %s - possible duplicate %s entry or a %s entry not posted yet",
		left, b.LeftTotal.StringFixed(2), right, b.RightTotal.StringFixed(2), b.Difference.StringFixed(2), left, right)
}
