// Package simulate ranks synthetic items against a hidden order and reports
// how many comparisons the ranker needed.
package simulate

import (
	"errors"
	"time"

	"github.com/okian/pairank/pkg/logger"
)

// Defaults applied when a Config leaves a field zero.
const (
	DefaultItems   = 20
	DefaultTimeout = 10 * time.Second
)

// ErrInvalidConfig is returned for configurations that cannot be simulated.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Config holds configuration for a simulation run.
type Config struct {
	Items   int           // Number of synthetic items, ignored when Names is set
	Names   []string      // Explicit item names
	Seed    int64         // Seed for the hidden order
	BaseURL string        // Remote server; empty runs in process
	Timeout time.Duration // HTTP request timeout for remote runs
	Logger  logger.Logger // Defaults to a discarding logger
}

func (c Config) withDefaults() Config {
	if c.Items == 0 && len(c.Names) == 0 {
		c.Items = DefaultItems
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = logger.Discard()
	}
	return c
}

func (c Config) validate() error {
	if c.Items < 0 {
		return errors.Join(ErrInvalidConfig, errors.New("items must not be negative"))
	}
	return nil
}

// Report summarizes a finished simulation.
type Report struct {
	Items       int           `json:"items"`
	Comparisons int           `json:"comparisons"`
	Naive       int           `json:"naive"`
	Ratio       float64       `json:"ratio"`
	Correct     bool          `json:"correct"`
	Misplaced   int           `json:"misplaced"`
	AllLocked   bool          `json:"all_locked"`
	Duration    time.Duration `json:"duration"`
	Ranking     []string      `json:"ranking"`
}

// naiveComparisons is the count of every distinct pair.
func naiveComparisons(n int) int {
	return n * (n - 1) / 2
}
