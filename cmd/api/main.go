package main

import (
	"fmt"
	"os"

	"github.com/eshaffer321/backoffice-recon/internal/cli"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/config"
)

func main() {
	flags, err := cli.ParseServeFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	cfg, err := loadConfig(flags.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := cli.RunServe(cfg, flags); err != nil {
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
