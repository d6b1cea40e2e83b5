// Package ranking implements the incremental comparison-ranking engine.
package ranking

import (
	"time"

	"github.com/okian/pairank/pkg/logger"
)

// Default ranker configuration constants.
const (
	defaultMaxNameLength = 255
)

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithLogger sets a custom logger for the ranker.
func WithLogger(l logger.Logger) Option {
	return func(r *Ranker) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRejectCycles controls whether a result contradicting recorded
// comparisons is rejected. When disabled the result is kept and the cycle is
// only reported.
func WithRejectCycles(enabled bool) Option {
	return func(r *Ranker) {
		r.rejectCycles = enabled
	}
}

// WithMaxNameLength caps item name length in bytes.
func WithMaxNameLength(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.maxNameLength = n
		}
	}
}

// WithClock overrides the time source used to stamp open comparisons.
func WithClock(now func() time.Time) Option {
	return func(r *Ranker) {
		if now != nil {
			r.now = now
		}
	}
}
