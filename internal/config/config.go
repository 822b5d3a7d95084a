// Package config loads process configuration from defaults, an optional
// YAML file, and ATTEND_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"attendscript/internal/policy"
	"attendscript/internal/resolve"
)

// Config holds everything the interpreter and CLI need to start up.
type Config struct {
	// EarlyBird and Regular are the check-in cutoffs, "HH:MM" or "HH:MM:SS".
	EarlyBird string `koanf:"early_bird"`
	Regular   string `koanf:"regular"`

	// ZoomCutMinutes is the minimum attendance duration for full credit.
	ZoomCutMinutes float64 `koanf:"zoom_cut_minutes"`

	// GeminiEnabled turns the AI name-matching tier on at startup. Scripts
	// can still flip it with ENABLE/DISABLE GEMINI.
	GeminiEnabled bool   `koanf:"gemini_enabled"`
	GeminiAPIKey  string `koanf:"gemini_api_key"`
	GeminiModel   string `koanf:"gemini_model"`

	// AuditDB is the path of the run-history database.
	AuditDB string `koanf:"audit_db"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
}

// New returns a Config populated with defaults.
func New() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		EarlyBird:      "11:00",
		Regular:        "11:36",
		ZoomCutMinutes: policy.DefaultZoomCutMinutes,
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    resolve.DefaultGeminiModel,
		AuditDB:        filepath.Join(home, ".attendscript", "history.db"),
		LogLevel:       "info",
	}
}

// Validate checks that the cutoffs parse and are ordered.
func (c *Config) Validate() error {
	early, err := policy.ParseTimeOfDay(c.EarlyBird)
	if err != nil {
		return fmt.Errorf("early_bird: %w", err)
	}
	regular, err := policy.ParseTimeOfDay(c.Regular)
	if err != nil {
		return fmt.Errorf("regular: %w", err)
	}
	if early >= regular {
		return fmt.Errorf("early_bird %s must be before regular %s", c.EarlyBird, c.Regular)
	}
	if c.ZoomCutMinutes < 0 {
		return fmt.Errorf("zoom_cut_minutes must not be negative")
	}
	return nil
}
