package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/backoffice-recon/internal/application/service"
	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
)

// PrintHeader prints the run header
func PrintHeader(w io.Writer, mode, left, right string) {
	fmt.Fprintf(w, "recon: %s mode\n", mode)
	fmt.Fprintf(w, "Left: %s | Right: %s\n\n", left, right)
}

// PrintSummary prints the reconciliation summary
func PrintSummary(w io.Writer, run *service.Run) {
	summary := run.Outcome.Summary

	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Summary: Records=%d Pairs=%d Invalid=%d\n", summary.Total, summary.Pairs, summary.Invalid)

	fmt.Fprintln(w, "\nBy status:")
	for _, status := range record.Statuses {
		count := summary.Count(status)
		if count == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-16s %6d  %s\n", status, count, summary.Amounts[status].StringFixed(2))
	}

	left, right := run.Mode.Sides()
	fmt.Fprintln(w, "\nBy side:")
	for _, side := range []record.Side{left, right} {
		fmt.Fprintf(w, "  %-16s %6d  %s\n", side, summary.BySide[side], summary.SideTotals[side].StringFixed(2))
	}

	if b := run.Outcome.Balance; b != nil {
		if b.Valid {
			fmt.Fprintln(w, "\nBalance: OK")
		} else {
			fmt.Fprintf(w, "\nBalance: OFF by %s\n  %s\n", b.Difference.StringFixed(2), b.Reason)
		}
	}

	if len(run.Outcome.Invalid) > 0 {
		fmt.Fprintln(w, "\nInvalid:")
		for _, inv := range run.Outcome.Invalid {
			fmt.Fprintf(w, "  - %v\n", inv.Err)
		}
	}

	if run.Persisted {
		fmt.Fprintf(w, "\nRun %s saved.\n", run.ID)
	}
}
