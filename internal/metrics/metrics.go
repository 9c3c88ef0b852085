// Package metrics exposes Prometheus instrumentation for the computation
// core. Everything registers on the default registerer; callers serve it with
// promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BalanceComputations counts full balance recomputations, labeled by mode
	// (strict reads vs post-write audits).
	BalanceComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tally",
		Name:      "balance_computations_total",
		Help:      "Number of full balance recomputations.",
	}, []string{"mode"})

	// ComputeDuration observes how long a balance recomputation takes. The
	// computation is O(transactions x contributors), so this is the first
	// place a growing ledger shows up.
	ComputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tally",
		Name:      "balance_compute_duration_seconds",
		Help:      "Duration of balance recomputations.",
		Buckets:   prometheus.DefBuckets,
	})

	// Validations counts transaction validations by outcome (ok / rejected).
	Validations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tally",
		Name:      "transaction_validations_total",
		Help:      "Number of transaction validations by outcome.",
	}, []string{"outcome"})

	// IntegrityFailures counts broken money-conservation invariants. Any
	// non-zero value here is alarm-worthy.
	IntegrityFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tally",
		Name:      "integrity_failures_total",
		Help:      "Number of integrity invariant violations detected.",
	})

	// AuditReactivations counts inactive members reactivated by the
	// post-write audit.
	AuditReactivations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tally",
		Name:      "audit_reactivations_total",
		Help:      "Number of members reactivated by the post-write audit.",
	})
)
