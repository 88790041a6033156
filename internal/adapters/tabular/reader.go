// Package tabular reads spreadsheet uploads into raw rows and writes
// classified records back out as CSV or XLSX.
//
// The reader never interprets cell values beyond decoding text: amounts,
// dates and narrations reach the normalizer exactly as the sheet shows them.
package tabular

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
)

var (
	// ErrUnsupportedFormat is returned for file extensions or export formats
	// the package cannot handle.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrSheetNotFound is returned when the requested worksheet is missing.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrNoHeader is returned when a file has no non-empty row.
	ErrNoHeader = errors.New("no header row")
)

// Supported text encodings for CSV input.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "iso-8859-1"
	EncodingCP1252 = "windows-1252"
)

const (
	defaultDelimiter = ','
	ctxCheckEvery    = 1000
)

// ReaderOptions configures a Reader
type ReaderOptions struct {
	Delimiter rune   // CSV field delimiter (default: ',')
	Encoding  string // CSV text encoding (default: utf-8)
	Sheet     string // XLSX worksheet (default: first sheet)
}

// Reader turns CSV and XLSX files into RawRows
type Reader struct {
	opts ReaderOptions
}

// NewReader creates a reader with the given options
func NewReader(opts ReaderOptions) *Reader {
	if opts.Delimiter == 0 {
		opts.Delimiter = defaultDelimiter
	}
	if opts.Encoding == "" {
		opts.Encoding = EncodingUTF8
	}
	return &Reader{opts: opts}
}

// Read parses r according to the extension of name. The first non-empty row
// is the header; blank rows are skipped and short rows padded with nil.
func (rd *Reader) Read(ctx context.Context, name string, r io.Reader) ([]record.RawRow, error) {
	var (
		rows [][]string
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv", ".txt":
		rows, err = rd.readCSV(ctx, r)
	case ".xlsx", ".xlsm":
		rows, err = rd.readXLSX(r)
	default:
		return nil, fmt.Errorf("%s: extension %q: %w", name, ext, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	return toRawRows(ctx, rows)
}

func (rd *Reader) readCSV(ctx context.Context, r io.Reader) ([][]string, error) {
	dec, err := decoder(rd.opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bufio.NewReader(transform.NewReader(r, dec)))
	reader.Comma = rd.opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading record: %w", err)
		}
		rows = append(rows, row)

		if len(rows)%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
	return rows, nil
}

func (rd *Reader) readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := rd.opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	} else if !slices.Contains(f.GetSheetList(), sheet) {
		return nil, fmt.Errorf("%q: %w", sheet, ErrSheetNotFound)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// decoder returns a BOM-aware decoder for the named encoding.
func decoder(name string) (transform.Transformer, error) {
	var fallback encoding.Encoding
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingUTF8, "utf8":
		fallback = unicode.UTF8
	case EncodingLatin1, "latin1", "latin-1":
		fallback = charmap.ISO8859_1
	case EncodingCP1252, "cp1252":
		fallback = charmap.Windows1252
	default:
		return nil, fmt.Errorf("encoding %q: %w", name, ErrUnsupportedFormat)
	}
	return unicode.BOMOverride(fallback.NewDecoder()), nil
}

func toRawRows(ctx context.Context, rows [][]string) ([]record.RawRow, error) {
	headerAt := slices.IndexFunc(rows, func(row []string) bool { return !blank(row) })
	if headerAt < 0 {
		return nil, ErrNoHeader
	}

	header := make([]string, len(rows[headerAt]))
	for i, col := range rows[headerAt] {
		header[i] = strings.TrimSpace(col)
		if header[i] == "" {
			header[i] = fmt.Sprintf("Column %d", i+1)
		}
	}

	out := make([]record.RawRow, 0, len(rows)-headerAt-1)
	for n, row := range rows[headerAt+1:] {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if blank(row) {
			continue
		}

		raw := make(record.RawRow, len(header))
		for i, col := range header {
			raw[i] = record.Cell{Column: col}
			if i < len(row) {
				raw[i].Value = row[i]
			}
		}
		out = append(out, raw)
	}

	return out, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
