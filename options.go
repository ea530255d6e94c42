package pudding

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Factory.
type Option func(*Factory)

// WithProvider sets the backend used for calls, transactions and network
// detection. Equivalent to calling SetProvider after construction.
func WithProvider(b Backend) Option {
	return func(f *Factory) {
		f.backend = b
	}
}

// WithDefaults sets the class-level transaction options merged under every
// call's own options.
func WithDefaults(opts TxOpts) Option {
	return func(f *Factory) {
		f.defaults = f.defaults.Merge(opts)
	}
}

// WithNextGen makes mutating operations resolve with a *TxResult instead of
// the bare transaction hash.
func WithNextGen(enabled bool) Option {
	return func(f *Factory) {
		f.nextGen = enabled
	}
}

// WithSynchronizationTimeout sets how long writes wait for their receipt.
// Default is 240 seconds; zero or negative waits forever.
func WithSynchronizationTimeout(d time.Duration) Option {
	return func(f *Factory) {
		f.timeout = d
	}
}

// WithPollInterval sets the delay between receipt polls.
// Default is one second.
func WithPollInterval(d time.Duration) Option {
	return func(f *Factory) {
		if d > 0 {
			f.pollInterval = d
		}
	}
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics records polling and deployment metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(f *Factory) {
		f.metrics = m
	}
}

// WithActiveNetwork activates the bundle for id when the factory is
// created, skipping network detection.
func WithActiveNetwork(id string) Option {
	return func(f *Factory) {
		f.initial = id
	}
}
