// Package metrics exposes Prometheus collectors for settlement runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for RunsTotal.
const (
	ResultOK               = "ok"
	ResultComputationError = "computation_error"
	ResultStorageError     = "storage_error"
)

// Metrics holds the settlement collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	Transactions     prometheus.Counter
	ResidualWarnings prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitledger",
			Subsystem: "settlement",
			Name:      "runs_total",
			Help:      "Settlement recomputations by result.",
		}, []string{"result"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "splitledger",
			Subsystem: "settlement",
			Name:      "run_duration_seconds",
			Help:      "Time spent recomputing a group's settlements, lock wait included.",
			Buckets:   prometheus.DefBuckets,
		}),
		Transactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "splitledger",
			Subsystem: "settlement",
			Name:      "transactions_total",
			Help:      "Settlement transactions produced by persisted runs.",
		}),
		ResidualWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "splitledger",
			Subsystem: "settlement",
			Name:      "residual_warnings_total",
			Help:      "Runs whose balances did not net to zero.",
		}),
	}
	reg.MustRegister(m.RunsTotal, m.RunDuration, m.Transactions, m.ResidualWarnings)
	return m
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(result string, started time.Time, transactions int, residual bool) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(result).Inc()
	m.RunDuration.Observe(time.Since(started).Seconds())
	m.Transactions.Add(float64(transactions))
	if residual {
		m.ResidualWarnings.Inc()
	}
}
