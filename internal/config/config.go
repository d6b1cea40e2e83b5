// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers defaults, an optional YAML file and PAIRANK_* env vars.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueCapacity bounds the number of operations waiting in the scheduler.
	QueueCapacity int `koanf:"queue_capacity"`

	// ItemsFile, when set, is bulk-loaded through AddItem at startup.
	ItemsFile string `koanf:"items_file"`

	// RejectCycles refuses results that would make the comparison log cyclic.
	RejectCycles bool `koanf:"reject_cycles"`

	// IdempotencySize bounds the remembered request ids for POST /items.
	IdempotencySize int `koanf:"idempotency_size"`

	// MaxNameLength caps item names accepted by the HTTP API.
	MaxNameLength int `koanf:"max_name_length"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		QueueCapacity:   1024,
		RejectCycles:    true,
		IdempotencySize: 10_000,
		MaxNameLength:   255,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueCapacity < 1:
		return fmt.Errorf("%w: queue_capacity must be positive, got %d", ErrInvalidConfig, c.QueueCapacity)
	case c.MaxNameLength < 1:
		return fmt.Errorf("%w: max_name_length must be positive, got %d", ErrInvalidConfig, c.MaxNameLength)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
