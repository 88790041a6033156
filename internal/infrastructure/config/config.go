// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml), with ${VAR} expansion
//  2. Environment variables (fallback), after loading a .env file if present
//
// Example usage:
//
//	cfg, err := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	threshold := cfg.Matching.FuzzyThreshold
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/backoffice-recon/internal/domain/duplicates"
	"github.com/eshaffer321/backoffice-recon/internal/domain/fuzzy"
	"github.com/eshaffer321/backoffice-recon/internal/domain/normalizer"
)

// Defaults applied to zero-valued settings
const (
	DefaultDatabasePath   = "recon.db"
	DefaultBatchSize      = 500
	DefaultPort           = 8085
	DefaultUploadLimitMB  = 20
	DefaultRateLimitRPS   = 5
	DefaultRateLimitBurst = 10
	DefaultCacheTTL       = 30 * time.Minute
)

// Config represents the entire application configuration
type Config struct {
	Matching      MatchingConfig      `yaml:"matching"`
	Storage       StorageConfig       `yaml:"storage"`
	API           APIConfig           `yaml:"api"`
	Cache         CacheConfig         `yaml:"cache"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// MatchingConfig holds engine settings
type MatchingConfig struct {
	NarrationKeyLength int                `yaml:"narration_key_length"`
	FuzzyThreshold     float64            `yaml:"fuzzy_threshold"`
	MaxComparisons     int                `yaml:"max_comparisons"`
	DuplicateIdentity  string             `yaml:"duplicate_identity"` // "reference" or "narration"
	Aliases            normalizer.Aliases `yaml:"aliases"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	BatchSize    int    `yaml:"batch_size"`
}

// APIConfig holds HTTP server settings
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	UploadLimitMB  int64    `yaml:"upload_limit_mb"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
}

// CacheConfig holds the fail-soft run cache settings
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NormalizerConfig converts the matching settings for the normalizer.
func (m MatchingConfig) NormalizerConfig() normalizer.Config {
	return normalizer.Config{
		KeyLength: m.NarrationKeyLength,
		Aliases:   m.Aliases.WithDefaults(),
	}
}

// FuzzyConfig converts the matching settings for the fuzzy matcher.
func (m MatchingConfig) FuzzyConfig() fuzzy.Config {
	return fuzzy.Config{
		Threshold:      m.FuzzyThreshold,
		MaxComparisons: m.MaxComparisons,
	}
}

// Identity resolves the duplicate identity, falling back to amount and
// reference for names Validate would reject.
func (m MatchingConfig) Identity() duplicates.IdentityFunc {
	fn, err := duplicates.IdentityByName(m.DuplicateIdentity)
	if err != nil {
		return duplicates.AmountAndReference
	}
	return fn
}

// UploadLimitBytes returns the request body limit in bytes.
func (a APIConfig) UploadLimitBytes() int64 {
	return a.UploadLimitMB << 20
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${RECON_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	// Seeded so an explicit fuzzy_threshold of 0 survives to Validate
	cfg := Config{Matching: MatchingConfig{FuzzyThreshold: fuzzy.DefaultThreshold}}
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Matching.validateThreshold(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Matching: MatchingConfig{
			NarrationKeyLength: getEnvInt("RECON_KEY_LENGTH", normalizer.DefaultKeyLength),
			FuzzyThreshold:     getEnvFloat("RECON_FUZZY_THRESHOLD", fuzzy.DefaultThreshold),
			MaxComparisons:     getEnvInt("RECON_MAX_COMPARISONS", fuzzy.DefaultMaxComparisons),
			DuplicateIdentity:  getEnv("RECON_DUPLICATE_IDENTITY", duplicates.IdentityReference),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("RECON_DB_PATH", DefaultDatabasePath),
			BatchSize:    getEnvInt("RECON_BATCH_SIZE", DefaultBatchSize),
		},
		API: APIConfig{
			Port:           getEnvInt("RECON_API_PORT", DefaultPort),
			AllowedOrigins: getEnvList("RECON_ALLOWED_ORIGINS"),
			UploadLimitMB:  int64(getEnvInt("RECON_UPLOAD_LIMIT_MB", DefaultUploadLimitMB)),
			RateLimitRPS:   getEnvFloat("RECON_RATE_LIMIT_RPS", DefaultRateLimitRPS),
			RateLimitBurst: getEnvInt("RECON_RATE_LIMIT_BURST", DefaultRateLimitBurst),
		},
		Cache: CacheConfig{
			TTL: getEnvDuration("RECON_CACHE_TTL", DefaultCacheTTL),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	if err := cfg.Matching.validateThreshold(); err != nil {
		return nil, fmt.Errorf("RECON_FUZZY_THRESHOLD: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid environment config: %w", err)
	}
	return cfg, nil
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() (*Config, error) {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables.
// A .env file in the working directory is loaded first so both paths can see it.
// Only a missing file falls back; an invalid one is an error.
func LoadOrEnv_WithPath(path string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return LoadFromEnv()
	}
	return cfg, err
}

// LoadDotEnv loads the given .env files (default: ".env") without overriding
// variables already set. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyDefaults fills zero-valued settings.
func (c *Config) ApplyDefaults() {
	if c.Matching.NarrationKeyLength <= 0 {
		c.Matching.NarrationKeyLength = normalizer.DefaultKeyLength
	}
	if c.Matching.FuzzyThreshold == 0 {
		c.Matching.FuzzyThreshold = fuzzy.DefaultThreshold
	}
	if c.Matching.MaxComparisons <= 0 {
		c.Matching.MaxComparisons = fuzzy.DefaultMaxComparisons
	}
	if c.Matching.DuplicateIdentity == "" {
		c.Matching.DuplicateIdentity = duplicates.IdentityReference
	}
	c.Matching.Aliases = c.Matching.Aliases.WithDefaults()

	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = DefaultDatabasePath
	}
	if c.Storage.BatchSize <= 0 {
		c.Storage.BatchSize = DefaultBatchSize
	}

	if c.API.Port == 0 {
		c.API.Port = DefaultPort
	}
	if len(c.API.AllowedOrigins) == 0 {
		c.API.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.API.UploadLimitMB <= 0 {
		c.API.UploadLimitMB = DefaultUploadLimitMB
	}
	if c.API.RateLimitRPS <= 0 {
		c.API.RateLimitRPS = DefaultRateLimitRPS
	}
	if c.API.RateLimitBurst <= 0 {
		c.API.RateLimitBurst = DefaultRateLimitBurst
	}

	if c.Cache.TTL <= 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// validateThreshold rejects thresholds outside (0, 1]. Scores are compared
// strictly below the threshold, so 0 would never match anything.
func (m MatchingConfig) validateThreshold() error {
	if err := m.FuzzyConfig().Validate(); err != nil {
		return fmt.Errorf("matching.fuzzy_threshold: %w", err)
	}
	return nil
}

// Validate rejects settings that cannot work.
func (c *Config) Validate() error {
	if err := c.Matching.validateThreshold(); err != nil {
		return err
	}
	if _, err := duplicates.IdentityByName(c.Matching.DuplicateIdentity); err != nil {
		return fmt.Errorf("matching.duplicate_identity: %w", err)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port out of range: %d", c.API.Port)
	}
	switch c.Observability.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("observability.logging.format must be text or json, got %q", c.Observability.Logging.Format)
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.Atoi(val); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.ParseFloat(val, 64); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if result, err := time.ParseDuration(val); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping empty entries
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
