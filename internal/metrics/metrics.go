// Package metrics exposes Prometheus collectors for ledger operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "splitledger"

// Metrics groups the collectors updated by the ledger.
type Metrics struct {
	Adjustments         prometheus.Counter
	SettlementsRecorded prometheus.Counter
	SettlementsDeleted  prometheus.Counter
	ExpensesCreated     prometheus.Counter
	TxRetries           prometheus.Counter
	OperationErrors     *prometheus.CounterVec
	RecomputeDuration   *prometheus.HistogramVec
}

// New registers the ledger collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Adjustments: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_adjustments_total",
			Help:      "Pairwise balance adjustments committed.",
		}),
		SettlementsRecorded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_recorded_total",
			Help:      "Settlements recorded.",
		}),
		SettlementsDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_deleted_total",
			Help:      "Settlements deleted and reversed.",
		}),
		ExpensesCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_created_total",
			Help:      "Expenses created.",
		}),
		TxRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_retries_total",
			Help:      "Write transactions retried after a lock conflict.",
		}),
		OperationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Failed ledger operations by operation and error class.",
		}, []string{"operation", "class"}),
		RecomputeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Time spent rebuilding a user's balances.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
	}
}

// NewNop returns collectors registered on a private registry, for callers that
// don't export metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
