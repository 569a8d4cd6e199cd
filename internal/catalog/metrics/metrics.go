// Package metrics exposes Prometheus collectors for the catalog gate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medidrop_catalog_evaluations_total",
		Help: "Number of gate evaluations, by decision status.",
	}, []string{"status"})

	BlockedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medidrop_catalog_blocked_total",
		Help: "Number of blocked evaluations, by reason code.",
	}, []string{"reason"})

	AutoPausesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medidrop_catalog_auto_pauses_total",
		Help: "Number of listings auto-paused after their seller lost verification.",
	})

	AutoResumesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medidrop_catalog_auto_resumes_total",
		Help: "Number of auto-paused listings resumed after their seller regained verification.",
	})

	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "medidrop_catalog_evaluation_duration_seconds",
		Help:    "Duration of a single gate evaluation.",
		Buckets: prometheus.DefBuckets,
	})
)
