package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
)

// Format is an export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ExportSheet is the worksheet name used by XLSX exports.
const ExportSheet = "Reconciliation"

// Columns is the fixed export header. The Amount column carries the original
// amount text so a re-read export derives the same helper keys.
var Columns = []string{
	"ID", "Row", "Date", "Narration", "Reference", "Amount", "Signed Amount", "Is Negative",
	"First15", "Last15", "Helper Key 1", "Helper Key 2", "Side", "Status", "Matched With", "Remark",
}

// ParseFormat validates an export format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatXLSX:
		return Format(s), nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("export format %q: %w", s, ErrUnsupportedFormat)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write exports records in the given format.
func Write(w io.Writer, format Format, records []*record.Record) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatXLSX:
		return WriteXLSX(w, records)
	default:
		return fmt.Errorf("export format %q: %w", format, ErrUnsupportedFormat)
	}
}

// WriteCSV writes the export projection as CSV.
func WriteCSV(w io.Writer, records []*record.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range records {
		if r == nil {
			continue
		}
		if err := cw.Write(csvRow(r)); err != nil {
			return fmt.Errorf("failed to write record %s: %w", r.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the export projection as a single-sheet workbook.
func WriteXLSX(w io.Writer, records []*record.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(ExportSheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	line := 2
	for _, r := range records {
		if r == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, xlsxRow(r)); err != nil {
			return fmt.Errorf("failed to write record %s: %w", r.ID, err)
		}
		line++
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func csvRow(r *record.Record) []string {
	return []string{
		r.ID,
		strconv.Itoa(r.Row),
		r.Date,
		r.Narration,
		r.Reference,
		r.OriginalAmountText,
		strconv.FormatFloat(r.SignedAmount, 'f', -1, 64),
		strconv.FormatBool(r.IsNegative),
		r.First15,
		r.Last15,
		r.HelperKey1,
		r.HelperKey2,
		string(r.Side),
		string(r.Status),
		r.MatchedWith,
		r.Remark,
	}
}

func xlsxRow(r *record.Record) []any {
	return []any{
		r.ID,
		r.Row,
		r.Date,
		r.Narration,
		r.Reference,
		r.OriginalAmountText,
		r.SignedAmount,
		r.IsNegative,
		r.First15,
		r.Last15,
		r.HelperKey1,
		r.HelperKey2,
		string(r.Side),
		string(r.Status),
		r.MatchedWith,
		r.Remark,
	}
}
