package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the oracle module.
type Metrics struct {
	// Signal provider latencies by provider name
	SignalLatency *prometheus.HistogramVec

	// Provider failures by provider name
	SignalFailures *prometheus.CounterVec

	// Overall verification latency including all providers
	VerifyLatency prometheus.Histogram
}

// New creates a new Metrics instance with all oracle module metrics registered.
func New() *Metrics {
	return &Metrics{
		SignalLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assetgate_oracle_signal_duration_seconds",
			Help:    "Duration of signal provider evaluations by provider",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"provider"}),

		SignalFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "assetgate_oracle_signal_failures_total",
			Help: "Total signal provider failures by provider",
		}, []string{"provider"}),

		VerifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "assetgate_oracle_verify_duration_seconds",
			Help:    "Duration of full oracle verification including all providers",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// ObserveSignalLatency records the duration of one provider evaluation.
func (m *Metrics) ObserveSignalLatency(provider string, d time.Duration) {
	if m != nil {
		m.SignalLatency.WithLabelValues(provider).Observe(d.Seconds())
	}
}

// IncrementSignalFailure records a provider failure.
func (m *Metrics) IncrementSignalFailure(provider string) {
	if m != nil {
		m.SignalFailures.WithLabelValues(provider).Inc()
	}
}

// ObserveVerifyLatency records the total verification duration.
func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}
