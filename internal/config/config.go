// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"time"

	"github.com/okian/framecount/internal/domain/pricing"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects json or console output.
	LogFormat string `koanf:"log_format" validate:"oneof=json console"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// CORSOrigins lists allowed browser origins. Env values are comma separated.
	CORSOrigins []string `koanf:"cors_origins"`

	// MaxUploadBytes caps the body of POST /imports.
	MaxUploadBytes int64 `koanf:"max_upload_bytes" validate:"gt=0"`

	// QueueSize bounds the in-memory import queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of import workers.
	WorkerCount int `koanf:"worker_count"`

	// Analyzer settings. Analysis stays disabled without an API key.
	AnalyzerEnabled   bool    `koanf:"analyzer_enabled"`
	AnalyzerAPIKey    string  `koanf:"analyzer_api_key"`
	AnalyzerModel     string  `koanf:"analyzer_model"`
	AnalyzerTimeoutMS int     `koanf:"analyzer_timeout_ms" validate:"gte=0"`
	AnalyzerRPS       float64 `koanf:"analyzer_rps"`

	// UnboundedThreshold is the tier Max above which ranges display as "∞".
	UnboundedThreshold int `koanf:"unbounded_threshold" validate:"gt=0"`

	// Currency formatting for displayed amounts.
	CurrencyLocale string `koanf:"currency_locale" validate:"required"`
	CurrencySymbol string `koanf:"currency_symbol"`

	// ReportTitle is used when a report request has no title.
	ReportTitle string `koanf:"report_title"`

	// ShutdownTimeoutMS bounds graceful shutdown.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms" validate:"gte=0"`

	// Tiers is the initial pricing table.
	Tiers []pricing.Tier `koanf:"tiers" validate:"dive"`
}

// New creates a Config with defaults. The context is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "json",
		Addr:               ":9080",
		CORSOrigins:        []string{"*"},
		MaxUploadBytes:     10 << 20,
		QueueSize:          64,
		WorkerCount:        2,
		AnalyzerModel:      "gemini-2.5-flash",
		AnalyzerTimeoutMS:  60_000,
		AnalyzerRPS:        1,
		UnboundedThreshold: pricing.DefaultUnboundedThreshold,
		CurrencyLocale:     "id-ID",
		CurrencySymbol:     "Rp",
		ReportTitle:        "Estimasi Biaya Shot",
		ShutdownTimeoutMS:  10_000,
		Tiers:              pricing.DefaultTiers(),
	}
}

// AnalyzerTimeout returns the per-call analysis timeout.
func (c *Config) AnalyzerTimeout() time.Duration {
	return time.Duration(c.AnalyzerTimeoutMS) * time.Millisecond
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}
