// Package httpapi exposes the resident evaluator over HTTP for editor
// integrations that want to avoid per-event process startup.
package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the resident evaluator.
type Metrics struct {
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	ConfigReloads      prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		EvaluationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hookwarden",
				Name:      "evaluations_total",
				Help:      "Total tool events evaluated",
			},
			[]string{"decision", "check"},
		),
		EvaluationDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "hookwarden",
				Name:      "evaluation_duration_seconds",
				Help:      "Evaluation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		ConfigReloads: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "hookwarden",
				Name:      "config_reloads_total",
				Help:      "Times the configuration cache was invalidated",
			},
		),
	}
}
