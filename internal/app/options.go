// Package app wires the ranking engine behind a serialized request scheduler.
package app

import (
	"github.com/okian/pairank/pkg/logger"
)

// Default scheduler configuration constants.
const (
	defaultQueueCapacity   = 1024
	defaultIdempotencySize = 10_000
	defaultMaxNameLength   = 255
)

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithLogger sets a custom logger for the scheduler.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithQueueCapacity sets the maximum number of waiting operations.
func WithQueueCapacity(capacity int) Option {
	return func(s *Scheduler) {
		if capacity > 0 {
			s.queueCapacity = capacity
		}
	}
}

// WithRejectCycles controls whether contradicting answers are rejected.
func WithRejectCycles(enabled bool) Option {
	return func(s *Scheduler) {
		s.rejectCycles = enabled
	}
}

// WithMaxNameLength caps item names in bytes.
func WithMaxNameLength(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxNameLength = n
		}
	}
}

// WithIdempotencySize sets how many add request ids are remembered.
// Zero or negative means unbounded.
func WithIdempotencySize(n int) Option {
	return func(s *Scheduler) {
		s.idempotencySize = n
	}
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(s *Scheduler) {
		if id != "" {
			s.sessionID = id
		}
	}
}
