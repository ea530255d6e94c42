package pudding

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// Confirmation defaults.
const (
	// DefaultSynchronizationTimeout bounds how long a write waits for its receipt.
	DefaultSynchronizationTimeout = 240 * time.Second

	// DefaultPollInterval is the delay between receipt polls.
	DefaultPollInterval = time.Second
)

// ReceiptFetcher is the slice of a Backend the tracker needs.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Tracker waits for submitted transactions to be mined.
//
// Each Wait polls for the receipt, scheduling the next poll only after the
// previous one returned, until the receipt appears, the timeout elapses, the
// backend fails, or ctx is done. A non-positive timeout polls forever.
type Tracker struct {
	backend  ReceiptFetcher
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *Metrics
}

// NewTracker creates a tracker with the default interval and timeout.
func NewTracker(backend ReceiptFetcher, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		backend:  backend,
		interval: DefaultPollInterval,
		timeout:  DefaultSynchronizationTimeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithTrackerInterval sets the delay between polls.
func WithTrackerInterval(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithTrackerTimeout sets the confirmation timeout. Zero or negative
// disables it.
func WithTrackerTimeout(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		t.timeout = d
	}
}

// WithTrackerLogger sets the logger.
func WithTrackerLogger(l *zap.Logger) TrackerOption {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithTrackerMetrics sets the metrics sink.
func WithTrackerMetrics(m *Metrics) TrackerOption {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// Wait blocks until the receipt of txHash is available.
func (t *Tracker) Wait(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	start := time.Now()
	logger := t.logger.With(zap.Stringer("tx", txHash))

	for attempt := 1; ; attempt++ {
		t.metrics.observePoll()
		receipt, err := t.backend.TransactionReceipt(ctx, txHash)
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			logger.Debug("receipt poll failed", zap.Int("attempt", attempt), zap.Error(err))
			return nil, &TransportError{Op: "eth_getTransactionReceipt", Err: err}
		}

		if receipt != nil {
			elapsed := time.Since(start)
			t.metrics.observeConfirmation(elapsed)
			logger.Debug("transaction mined",
				zap.Int("attempts", attempt),
				zap.Duration("elapsed", elapsed),
				zap.Uint64("status", receipt.Status))
			return receipt, nil
		}

		if t.timeout > 0 && time.Since(start) > t.timeout {
			t.metrics.observeTimeout()
			logger.Warn("transaction not mined in time", zap.Duration("timeout", t.timeout))
			return nil, &ConfirmationTimeoutError{TxHash: txHash, Timeout: t.timeout}
		}

		logger.Debug("receipt not yet available", zap.Int("attempt", attempt))

		timer := time.NewTimer(t.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
