// Package metrics exposes Prometheus collectors for the prescription
// workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medidrop_prescription_requests_total",
		Help: "Number of prescription requests opened.",
	})

	ReviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medidrop_prescription_reviews_total",
		Help: "Number of prescription reviews resolved, by outcome.",
	}, []string{"outcome"})

	CancellationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medidrop_prescription_cancellations_total",
		Help: "Number of prescription requests cancelled by their buyer.",
	})
)
