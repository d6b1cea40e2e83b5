package matchup

// Option applies a configuration option to the Log.
type Option func(*Log)

// WithCycleGuard makes Record reject an edge that would close a cycle.
func WithCycleGuard(enabled bool) Option {
	return func(l *Log) {
		l.guardCycles = enabled
	}
}
