package cli

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eshaffer321/backoffice-recon/internal/adapters/tabular"
	"github.com/eshaffer321/backoffice-recon/internal/api"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/config"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/logging"
)

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port    int
	Verbose bool
	Config  string
}

// ParseServeFlags parses command line flags for the serve command.
// A zero port means the configured port.
func ParseServeFlags(args []string, output io.Writer) (*ServeFlags, error) {
	flags := &ServeFlags{}
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on (default: config api.port)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	fs.StringVar(&flags.Config, "config", "", "Configuration file path")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// APIConfig builds the server config from the application config and flags.
func APIConfig(cfg *config.Config, flags *ServeFlags) api.Config {
	apiCfg := api.Config{
		Port:             cfg.API.Port,
		AllowedOrigins:   cfg.API.AllowedOrigins,
		UploadLimitBytes: cfg.API.UploadLimitBytes(),
		RateLimitRPS:     cfg.API.RateLimitRPS,
		RateLimitBurst:   cfg.API.RateLimitBurst,
	}
	if flags.Port > 0 {
		apiCfg.Port = flags.Port
	}
	return apiCfg
}

// RunServe runs the API server.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	// Set up logging
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "api")

	// Initialize storage
	store, err := OpenStorage(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc := NewService(cfg, tabular.ReaderOptions{}, store, logger)

	// Create and start server
	server := api.NewServer(APIConfig(cfg, flags), svc, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
