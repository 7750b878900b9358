package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRun(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRun(ResultOK, time.Now(), 3, false)
	m.ObserveRun(ResultOK, time.Now(), 2, true)
	m.ObserveRun(ResultStorageError, time.Now(), 0, false)

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(ResultOK)); got != 2 {
		t.Errorf("ok runs = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(ResultStorageError)); got != 1 {
		t.Errorf("storage error runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Transactions); got != 5 {
		t.Errorf("transactions = %v, want 5", got)
	}
	if got := testutil.ToFloat64(m.ResidualWarnings); got != 1 {
		t.Errorf("residual warnings = %v, want 1", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveRun(ResultOK, time.Now(), 1, false) // must not panic
}
