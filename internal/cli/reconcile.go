package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/eshaffer321/backoffice-recon/internal/adapters/tabular"
	"github.com/eshaffer321/backoffice-recon/internal/application/service"
	"github.com/eshaffer321/backoffice-recon/internal/domain/reconcile"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/config"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/logging"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/storage"
)

// EngineOptions builds engine options from the matching config
func EngineOptions(cfg *config.Config) reconcile.Options {
	options := reconcile.DefaultOptions()
	options.Normalizer = cfg.Matching.NormalizerConfig()
	options.Fuzzy = cfg.Matching.FuzzyConfig()
	options.Identity = cfg.Matching.Identity()
	return options
}

// OpenStorage opens the configured database
func OpenStorage(cfg *config.Config) (*storage.Storage, error) {
	return storage.NewStorage(cfg.Storage.DatabasePath, storage.WithBatchSize(cfg.Storage.BatchSize))
}

// NewService wires a reconcile service from config. store may be nil.
func NewService(cfg *config.Config, readerOpts tabular.ReaderOptions, store storage.Repository, logger *slog.Logger) *service.ReconcileService {
	return service.NewReconcileService(
		reconcile.New(EngineOptions(cfg)),
		tabular.NewReader(readerOpts),
		store,
		cfg.Cache.TTL,
		logger,
	)
}

// RunReconcile reconciles two files, prints the summary and optionally
// exports the classified records.
func RunReconcile(ctx context.Context, cfg *config.Config, flags *ReconcileFlags, stdout io.Writer) error {
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "recon")

	var store storage.Repository
	if flags.Save {
		s, err := OpenStorage(cfg)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() { _ = s.Close() }()
		store = s
	}

	left, err := os.Open(flags.Left)
	if err != nil {
		return err
	}
	defer func() { _ = left.Close() }()

	right, err := os.Open(flags.Right)
	if err != nil {
		return err
	}
	defer func() { _ = right.Close() }()

	PrintHeader(stdout, flags.Mode, flags.Left, flags.Right)

	svc := NewService(cfg, flags.ReaderOptions(), store, logger)
	run, err := svc.Reconcile(ctx, service.Request{
		Mode:  flags.Mode,
		Left:  service.Input{Name: flags.Left, Reader: left},
		Right: service.Input{Name: flags.Right, Reader: right},
		Save:  flags.Save,
	})
	if err != nil {
		return err
	}

	PrintSummary(stdout, run)

	if flags.Out != "" {
		if err := exportRun(run, flags); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "\nRecords written to %s\n", flags.Out)
	}
	return nil
}

func exportRun(run *service.Run, flags *ReconcileFlags) error {
	format, err := flags.OutFormat()
	if err != nil {
		return err
	}

	out, err := os.Create(flags.Out)
	if err != nil {
		return err
	}
	if err := tabular.Write(out, format, run.Outcome.Records); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write %s: %w", flags.Out, err)
	}
	return out.Close()
}
