package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLendingMetricsExports(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewLendingMetrics(reg)

	metrics.ObserveBorrow("ok")
	metrics.ObserveBorrow("ok")
	metrics.ObserveBorrow("INSUFFICIENT_STOCK")
	metrics.ObserveReturn("NO_ACTIVE_LOAN")
	metrics.SetOverdue(3)
	metrics.SetOpenLoans(7)

	if got := testutil.ToFloat64(metrics.borrows.WithLabelValues("ok")); got != 2 {
		t.Fatalf("expected 2 ok borrows, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.borrows.WithLabelValues("INSUFFICIENT_STOCK")); got != 1 {
		t.Fatalf("expected 1 failed borrow, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.returns.WithLabelValues("NO_ACTIVE_LOAN")); got != 1 {
		t.Fatalf("expected 1 failed return, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.overdue); got != 3 {
		t.Fatalf("expected overdue gauge 3, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.onLoan); got != 7 {
		t.Fatalf("expected open loans gauge 7, got %f", got)
	}
}

func TestLendingMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewLendingMetrics(nil)
	metrics.ObserveBorrow("ok")
	metrics.ObserveReturn("ok")
	metrics.SetOverdue(1)
	metrics.SetOpenLoans(1)
}

func TestEmptyLabelNormalized(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewLendingMetrics(reg)
	metrics.ObserveBorrow("")
	if got := testutil.ToFloat64(metrics.borrows.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected empty result to count as unknown, got %f", got)
	}
}
