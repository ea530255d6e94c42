package pudding

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts receipt polling and deployment activity. A nil *Metrics
// records nothing.
type Metrics struct {
	ReceiptPolls         prometheus.Counter
	Confirmations        prometheus.Counter
	ConfirmationTimeouts prometheus.Counter
	Deployments          *prometheus.CounterVec
	ConfirmationDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReceiptPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pudding_receipt_polls_total",
			Help: "Total number of transaction receipt polls",
		}),
		Confirmations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pudding_confirmations_total",
			Help: "Total number of transactions observed mined",
		}),
		ConfirmationTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pudding_confirmation_timeouts_total",
			Help: "Total number of confirmation waits that timed out",
		}),
		Deployments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pudding_deployments_total",
				Help: "Total number of contract deployments by contract",
			},
			[]string{"contract"},
		),
		ConfirmationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pudding_confirmation_duration_seconds",
			Help:    "Time from submission until the receipt was observed",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.ReceiptPolls,
			m.Confirmations,
			m.ConfirmationTimeouts,
			m.Deployments,
			m.ConfirmationDuration,
		)
	}
	return m
}

func (m *Metrics) observePoll() {
	if m == nil {
		return
	}
	m.ReceiptPolls.Inc()
}

func (m *Metrics) observeConfirmation(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Confirmations.Inc()
	m.ConfirmationDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeTimeout() {
	if m == nil {
		return
	}
	m.ConfirmationTimeouts.Inc()
}

func (m *Metrics) observeDeployment(contract string) {
	if m == nil {
		return
	}
	m.Deployments.WithLabelValues(contract).Inc()
}
