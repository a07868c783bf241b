package metrics

import "github.com/prometheus/client_golang/prometheus"

// LendingMetrics counts borrow/return outcomes and tracks overdue loans.
type LendingMetrics struct {
	borrows *prometheus.CounterVec
	returns *prometheus.CounterVec
	overdue prometheus.Gauge
	onLoan  prometheus.Gauge
}

// NewLendingMetrics registers the lending metrics on the provided registerer.
func NewLendingMetrics(reg prometheus.Registerer) *LendingMetrics {
	if reg == nil {
		return &LendingMetrics{}
	}
	borrows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lending_borrow_total",
		Help: "Borrow operations by result.",
	}, []string{"result"})
	returns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lending_return_total",
		Help: "Return operations by result.",
	}, []string{"result"})
	overdue := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lending_overdue_loans",
		Help: "Open loans past their due date, as of the last audit.",
	})
	onLoan := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lending_open_loans",
		Help: "Open loan records, as of the last audit.",
	})
	reg.MustRegister(borrows, returns, overdue, onLoan)
	return &LendingMetrics{
		borrows: borrows,
		returns: returns,
		overdue: overdue,
		onLoan:  onLoan,
	}
}

// ObserveBorrow counts one borrow outcome ("ok" or an error code).
func (m *LendingMetrics) ObserveBorrow(result string) {
	if m == nil || m.borrows == nil {
		return
	}
	m.borrows.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveReturn counts one return outcome ("ok" or an error code).
func (m *LendingMetrics) ObserveReturn(result string) {
	if m == nil || m.returns == nil {
		return
	}
	m.returns.WithLabelValues(normalizeLabel(result)).Inc()
}

// SetOverdue records the overdue loan count from the latest audit pass.
func (m *LendingMetrics) SetOverdue(count int64) {
	if m == nil || m.overdue == nil {
		return
	}
	m.overdue.Set(float64(count))
}

// SetOpenLoans records the open loan count from the latest audit pass.
func (m *LendingMetrics) SetOpenLoans(count int64) {
	if m == nil || m.onLoan == nil {
		return
	}
	m.onLoan.Set(float64(count))
}
