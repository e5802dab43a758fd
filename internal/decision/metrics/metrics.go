package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for gate evaluation.
type Metrics struct {
	// Decision outcomes by status and action
	DecisionOutcome *prometheus.CounterVec

	// Overrides that authorized a gate firing
	OverridesApplied *prometheus.CounterVec

	// Full evaluate-and-append latency
	EvaluateLatency prometheus.Histogram

	// Projection fold latency
	ProjectLatency prometheus.Histogram
}

// New creates a Metrics instance with all gate metrics registered.
func New() *Metrics {
	return &Metrics{
		DecisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dealgate_decision_outcomes_total",
			Help: "Total gate decisions by status and action",
		}, []string{"status", "action"}),

		OverridesApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dealgate_overrides_applied_total",
			Help: "Total override attestations consumed by a gate firing",
		}, []string{"action"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dealgate_evaluate_duration_seconds",
			Help:    "Duration of full evaluate-and-append including the as-of view load",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		ProjectLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dealgate_project_duration_seconds",
			Help:    "Duration of the lifecycle projection fold",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
	}
}

// IncrementOutcome records a gate decision.
func (m *Metrics) IncrementOutcome(status, action string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(status, action).Inc()
	}
}

// IncrementOverrideApplied records an override consumed by a firing.
func (m *Metrics) IncrementOverrideApplied(action string) {
	if m != nil {
		m.OverridesApplied.WithLabelValues(action).Inc()
	}
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

// ObserveProjectLatency records one projection fold duration.
func (m *Metrics) ObserveProjectLatency(d time.Duration) {
	if m != nil {
		m.ProjectLatency.Observe(d.Seconds())
	}
}
