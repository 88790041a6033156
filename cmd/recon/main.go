package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eshaffer321/backoffice-recon/internal/cli"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/config"
)

func main() {
	flags, err := cli.ParseReconcileFlags(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := loadConfig(flags.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Ctrl-C stops reading large uploads
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.RunReconcile(ctx, cfg, flags, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads an explicit config file, or config.yaml with the
// environment as fallback.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadOrEnv()
	}
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	return config.Load(path)
}
