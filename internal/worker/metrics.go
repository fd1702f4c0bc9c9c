package worker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks evaluation outcomes.
//
// Metrics:
//   - dago_eval_evaluations_total: evaluations by language and outcome
//   - dago_eval_evaluation_duration_seconds: evaluation latency by language
//   - dago_eval_setup_failures_total: languages that could not be resolved
//   - dago_eval_cached_evaluators: evaluators held by the factory cache
type Metrics struct {
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	setupFailuresTotal *prometheus.CounterVec
}

// Outcome labels
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// NewMetrics creates and registers worker metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dago",
				Subsystem: "eval",
				Name:      "evaluations_total",
				Help:      "Total number of script evaluations",
			},
			[]string{"language", "outcome"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dago",
				Subsystem: "eval",
				Name:      "evaluation_duration_seconds",
				Help:      "Script evaluation latency",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
			[]string{"language"},
		),

		setupFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dago",
				Subsystem: "eval",
				Name:      "setup_failures_total",
				Help:      "Total number of languages that could not be resolved to an evaluator",
			},
			[]string{"language"},
		),
	}

	registry.MustRegister(
		m.evaluationsTotal,
		m.evaluationDuration,
		m.setupFailuresTotal,
	)

	return m
}

// WatchCache exposes the size of an evaluator cache as a gauge
func WatchCache(registry prometheus.Registerer, cache interface{ Len() int }) {
	registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "dago",
			Subsystem: "eval",
			Name:      "cached_evaluators",
			Help:      "Number of evaluators held by the factory cache",
		},
		func() float64 {
			return float64(cache.Len())
		},
	))
}

func (m *Metrics) observe(language, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.evaluationsTotal.WithLabelValues(language, outcome).Inc()
	m.evaluationDuration.WithLabelValues(language).Observe(seconds)
}

func (m *Metrics) setupFailed(language string) {
	if m == nil {
		return
	}
	m.setupFailuresTotal.WithLabelValues(language).Inc()
}
