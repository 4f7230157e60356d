package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification pipeline.
type Metrics struct {
	// Stage durations by pipeline stage
	StageLatency *prometheus.HistogramVec

	// Terminal outcomes by final status
	Outcomes *prometheus.CounterVec

	// Submissions currently being processed
	InFlight prometheus.Gauge
}

// New creates a new Metrics instance with all pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assetgate_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages by stage name",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),

		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "assetgate_pipeline_outcomes_total",
			Help: "Terminal pipeline outcomes by final status",
		}, []string{"status"}),

		InFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "assetgate_pipeline_in_flight",
			Help: "Submissions currently being processed",
		}),
	}
}

// ObserveStageLatency records the duration of one pipeline stage.
func (m *Metrics) ObserveStageLatency(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// IncrementOutcome records a terminal pipeline outcome.
func (m *Metrics) IncrementOutcome(status string) {
	if m != nil {
		m.Outcomes.WithLabelValues(status).Inc()
	}
}

// PipelineStarted marks one submission entering the pipeline.
func (m *Metrics) PipelineStarted() {
	if m != nil {
		m.InFlight.Inc()
	}
}

// PipelineFinished marks one submission leaving the pipeline.
func (m *Metrics) PipelineFinished() {
	if m != nil {
		m.InFlight.Dec()
	}
}
