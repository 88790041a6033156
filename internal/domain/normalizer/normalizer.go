// Package normalizer turns raw spreadsheet rows into canonical transaction
// records.
//
// Column names differ between sources ("Narration" vs "Narrative",
// "Amount" vs "Amount (NGN)"), so every logical field is resolved through an
// alias list: exact alias match first, then a case- and
// whitespace-insensitive comparison. A column that cannot be resolved is
// treated as empty (or zero for the amount); normalization never fails.
//
// Example usage:
//
//	n := normalizer.New(normalizer.DefaultConfig())
//	records := n.NormalizeAll(rows, record.SideDebit)
package normalizer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
)

// Normalizer converts RawRows into Records
type Normalizer struct {
	config Config
}

// New creates a normalizer with the given config
func New(config Config) *Normalizer {
	if config.KeyLength <= 0 {
		config.KeyLength = DefaultKeyLength
	}
	config.Aliases = config.Aliases.WithDefaults()

	return &Normalizer{
		config: config,
	}
}

// RecordID is the positional identity of a record: its side and 1-based
// row, e.g. "debit-3". The same input always yields the same IDs, so
// MatchedWith links are stable across runs.
func RecordID(side record.Side, row int) string {
	return string(side) + "-" + strconv.Itoa(row)
}

// Config returns the effective configuration.
func (n *Normalizer) Config() Config {
	return n.config
}

// Normalize builds an unclassified record from one raw row. Row and ID are
// left zero; NormalizeAll assigns them from the row's position.
func (n *Normalizer) Normalize(row record.RawRow, side record.Side) *record.Record {
	date, _ := lookup(row, n.config.Aliases.Date)
	narration, _ := lookup(row, n.config.Aliases.Narration)
	reference, _ := lookup(row, n.config.Aliases.Reference)
	rawAmount, _ := lookup(row, n.config.Aliases.Amount)

	amount := ParseAmount(rawAmount)
	narrationText := cellText(narration)
	normalized := CollapseWhitespace(narrationText)
	keys := DeriveKeys(normalized, amount.Value, n.config.KeyLength)

	return &record.Record{
		Date:                cellText(date),
		Narration:           narrationText,
		NormalizedNarration: normalized,
		Reference:           strings.TrimSpace(cellText(reference)),
		OriginalAmountText:  amount.Text,
		SignedAmount:        amount.Value,
		IsNegative:          amount.Negative,
		First15:             keys.First,
		Last15:              keys.Last,
		HelperKey1:          keys.Key1,
		HelperKey2:          keys.Key2,
		Side:                side,
		Status:              record.StatusUnclassified,
	}
}

// NormalizeAll normalizes rows in order. Row numbers are 1-based positions in
// the input and IDs derive from side and row.
func (n *Normalizer) NormalizeAll(rows []record.RawRow, side record.Side) []*record.Record {
	records := make([]*record.Record, 0, len(rows))
	for i, row := range rows {
		rec := n.Normalize(row, side)
		rec.Row = i + 1
		rec.ID = RecordID(side, rec.Row)
		records = append(records, rec)
	}
	return records
}

// lookup resolves a logical field: exact alias match first, then a case- and
// whitespace-insensitive match against every row column.
func lookup(row record.RawRow, aliases []string) (any, bool) {
	for _, alias := range aliases {
		if v, ok := row.Get(alias); ok {
			return v, true
		}
	}

	for _, alias := range aliases {
		want := foldColumn(alias)
		if want == "" {
			continue
		}
		for _, cell := range row {
			if foldColumn(cell.Column) == want {
				return cell.Value, true
			}
		}
	}

	return nil, false
}

// foldColumn lower-cases a column name and drops all whitespace.
func foldColumn(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}
