// Package metrics exposes Prometheus collectors for the seller
// verification lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medidrop_seller_verification_submissions_total",
		Help: "Number of verification submissions accepted.",
	})

	ReviewsResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medidrop_seller_reviews_resolved_total",
		Help: "Number of verification reviews resolved, by outcome.",
	}, []string{"outcome"})

	SuspensionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medidrop_seller_suspensions_total",
		Help: "Number of sellers suspended by the expiry sweep.",
	})

	ExpiryWarningsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medidrop_seller_expiry_warnings_total",
		Help: "Number of pending-expiry warnings emitted.",
	})

	RegistryChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medidrop_seller_registry_checks_total",
		Help: "Number of external registry consultations, by result.",
	}, []string{"result"})

	ExpirySweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "medidrop_seller_expiry_sweep_duration_seconds",
		Help:    "Duration of the daily license expiry sweep.",
		Buckets: prometheus.DefBuckets,
	})
)
