// Package config loads runtime configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tally/internal/currency"
	"tally/internal/money"
)

// Config holds everything the report tool needs to run.
type Config struct {
	// SQLiteDBPath is where the ledger database lives.
	SQLiteDBPath string

	// LogLevel is the slog level name: debug, info, warn, error.
	LogLevel string

	// MoneyFormat selects report output formatting: "dollars" or "cents".
	MoneyFormat string

	// MetricsAddr, when non-empty, is the listen address for the Prometheus
	// /metrics endpoint (e.g. ":9090").
	MetricsAddr string

	// ReportInterval, when positive, re-runs the report on a timer instead of
	// exiting after one pass.
	ReportInterval time.Duration
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		SQLiteDBPath:   getEnv("TALLY_DB_PATH", "./data/tally.db"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MoneyFormat:    getEnv("TALLY_MONEY_FORMAT", money.FormatDollars),
		MetricsAddr:    getEnv("TALLY_METRICS_ADDR", ""),
		ReportInterval: getEnvDuration("TALLY_REPORT_INTERVAL", 0),
	}
}

// Validate returns an error describing every invalid setting, or nil.
func (c *Config) Validate() error {
	var problems []string

	if c.MoneyFormat != money.FormatDollars && c.MoneyFormat != money.FormatRawCents {
		problems = append(problems, fmt.Sprintf("invalid money format %q: must be %q or %q",
			c.MoneyFormat, money.FormatDollars, money.FormatRawCents))
	}

	if c.SQLiteDBPath == "" {
		problems = append(problems, "database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		// The store creates a missing directory itself; only an existing
		// non-directory in the way is a configuration mistake.
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			problems = append(problems, fmt.Sprintf("database directory %q is not a directory", dir))
		}
	}

	if c.ReportInterval < 0 {
		problems = append(problems, fmt.Sprintf("report interval %s cannot be negative", c.ReportInterval))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SupportedCurrencies exposes the currency table for startup logging.
func (c *Config) SupportedCurrencies() []string {
	return currency.Codes()
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Accept a bare number of seconds too.
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
