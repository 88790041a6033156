package cli

import (
	"errors"
	"flag"
	"io"
	"path/filepath"
	"strings"

	"github.com/eshaffer321/backoffice-recon/internal/adapters/tabular"
	"github.com/eshaffer321/backoffice-recon/internal/domain/reconcile"
)

// ReconcileFlags are the flags of the recon command
type ReconcileFlags struct {
	Mode      string
	Left      string
	Right     string
	Out       string
	Save      bool
	Config    string
	Verbose   bool
	Sheet     string
	Delimiter string
	Encoding  string
}

// ParseReconcileFlags parses recon command flags from args
func ParseReconcileFlags(args []string, output io.Writer) (*ReconcileFlags, error) {
	flags := &ReconcileFlags{}
	fs := flag.NewFlagSet("recon", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&flags.Mode, "mode", string(reconcile.ModeLedger), "Reconciliation mode: ledger or ticket")
	fs.StringVar(&flags.Left, "left", "", "Debit ledger or ticket file (.csv, .xlsx)")
	fs.StringVar(&flags.Right, "right", "", "Credit ledger or reference file (.csv, .xlsx)")
	fs.StringVar(&flags.Out, "out", "", "Write classified records to this file (.csv or .xlsx)")
	fs.BoolVar(&flags.Save, "save", false, "Persist the run to the database")
	fs.StringVar(&flags.Config, "config", "", "Configuration file path")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	fs.StringVar(&flags.Sheet, "sheet", "", "XLSX worksheet to read (default: first sheet)")
	fs.StringVar(&flags.Delimiter, "delimiter", ",", "CSV field delimiter")
	fs.StringVar(&flags.Encoding, "encoding", tabular.EncodingUTF8, "CSV text encoding: utf-8, iso-8859-1, windows-1252")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, flags.Validate()
}

// Validate checks the flag combination
func (f *ReconcileFlags) Validate() error {
	if _, err := reconcile.ParseMode(f.Mode); err != nil {
		return err
	}
	if f.Left == "" || f.Right == "" {
		return errors.New("both -left and -right are required")
	}
	if len([]rune(f.Delimiter)) != 1 {
		return errors.New("-delimiter must be a single character")
	}
	if f.Out != "" {
		if _, err := f.OutFormat(); err != nil {
			return err
		}
	}
	return nil
}

// OutFormat derives the export format from the -out extension
func (f *ReconcileFlags) OutFormat() (tabular.Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Out)), ".")
	if ext == "" {
		return tabular.FormatCSV, nil
	}
	return tabular.ParseFormat(ext)
}

// ReaderOptions converts the input flags to tabular reader options
func (f *ReconcileFlags) ReaderOptions() tabular.ReaderOptions {
	return tabular.ReaderOptions{
		Delimiter: []rune(f.Delimiter)[0],
		Encoding:  f.Encoding,
		Sheet:     f.Sheet,
	}
}
