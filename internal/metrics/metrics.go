package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "argo_signals"

// Metrics holds the Prometheus collectors of the evaluation pipeline.
type Metrics struct {
	CandlesIngested   prometheus.Counter
	ReadingsIngested  prometheus.Counter
	RejectedInputs    *prometheus.CounterVec // labels: input=candle|reading
	Evaluations       prometheus.Counter
	EvaluationDur     prometheus.Histogram
	MissingIndicators prometheus.Counter

	// Emission
	SignalsPublished  *prometheus.CounterVec // labels: type
	SignalsSuppressed *prometheus.CounterVec // labels: type, reason

	// Filtering and rules
	FilterRejections *prometheus.CounterVec // labels: filter
	RuleFailures     *prometheus.CounterVec // labels: rule
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which keeps parallel tests independent.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CandlesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candles_ingested_total",
			Help:      "Total candles accepted by the pipeline",
		}),
		ReadingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_ingested_total",
			Help:      "Total indicator readings accepted by the pipeline",
		}),
		RejectedInputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_inputs_total",
			Help:      "Malformed candles and readings rejected (by input)",
		}, []string{"input"}),
		Evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total bar evaluations started",
		}),
		EvaluationDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Latency of one bar evaluation",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		MissingIndicators: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missing_indicator_aborts_total",
			Help:      "Evaluations aborted because a required indicator had no reading",
		}),
		SignalsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_published_total",
			Help:      "Signals published to consumers (by type)",
		}, []string{"type"}),
		SignalsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_suppressed_total",
			Help:      "Signals suppressed by the emission policy (by type and reason)",
		}, []string{"type", "reason"}),
		FilterRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_rejections_total",
			Help:      "Bars rejected by a filter (by filter)",
		}, []string{"filter"}),
		RuleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_failures_total",
			Help:      "Rule evaluations that errored or panicked (by rule)",
		}, []string{"rule"}),
	}

	if reg != nil {
		reg.MustRegister(m.Collectors()...)
	}

	return m
}

// Collectors returns every collector held by m.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CandlesIngested,
		m.ReadingsIngested,
		m.RejectedInputs,
		m.Evaluations,
		m.EvaluationDur,
		m.MissingIndicators,
		m.SignalsPublished,
		m.SignalsSuppressed,
		m.FilterRejections,
		m.RuleFailures,
	}
}
