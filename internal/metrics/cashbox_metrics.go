package metrics

import "github.com/prometheus/client_golang/prometheus"

// CashboxMetrics содержит метрики автосоздания ежедневных касс.
type CashboxMetrics struct {
	runs    *prometheus.CounterVec
	created prometheus.Counter
	races   prometheus.Counter
}

// NewCashboxMetrics создаёт метрики в реестре по умолчанию.
func NewCashboxMetrics() *CashboxMetrics {
	return NewCashboxMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCashboxMetricsWithRegisterer создаёт метрики в переданном реестре.
func NewCashboxMetricsWithRegisterer(registerer prometheus.Registerer) *CashboxMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &CashboxMetrics{
		runs: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_cashbox_provision_runs_total",
			Help: "Cashbox provisioning runs grouped by result",
		}, []string{"result"}),
		created: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_cashbox_created_total",
			Help: "Total number of daily cashboxes created",
		}),
		races: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_cashbox_create_conflicts_total",
			Help: "Concurrent cashbox creations resolved by re-reading the existing cashbox",
		}),
	}
}

// RecordRun учитывает запуск провижининга: existing, created или error.
func (m *CashboxMetrics) RecordRun(result string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
}

// RecordCreated увеличивает счётчик созданных касс.
func (m *CashboxMetrics) RecordCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
}

// RecordConflict увеличивает счётчик проигранных гонок создания.
func (m *CashboxMetrics) RecordConflict() {
	if m == nil {
		return
	}
	m.races.Inc()
}
