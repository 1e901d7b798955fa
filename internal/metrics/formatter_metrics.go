package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FormatterMetrics содержит метрики группировки позиций заказов.
type FormatterMetrics struct {
	linesProcessed prometheus.Counter
	groupsProduced prometheus.Counter
	detailsSource  *prometheus.CounterVec

	formatDuration *prometheus.HistogramVec

	summariesTotal *prometheus.CounterVec
	lastGroups     prometheus.Gauge
}

// NewFormatterMetrics создаёт метрики в реестре по умолчанию.
func NewFormatterMetrics() *FormatterMetrics {
	return NewFormatterMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewFormatterMetricsWithRegisterer создаёт метрики в переданном реестре; повторная регистрация переиспользует коллекторы.
func NewFormatterMetricsWithRegisterer(registerer prometheus.Registerer) *FormatterMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &FormatterMetrics{
		linesProcessed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_order_lines_processed_total",
			Help: "Total number of raw order lines passed through the grouper",
		}),
		groupsProduced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_order_item_groups_total",
			Help: "Total number of grouped order items produced",
		}),
		detailsSource: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_order_line_details_total",
			Help: "Order lines grouped by where product details were taken from",
		}, []string{"source"}),
		formatDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "storefront_order_items_format_duration_seconds",
			Help:    "Duration of a grouping pass in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"operation"}),
		summariesTotal: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_order_summaries_total",
			Help: "Order summary requests grouped by result",
		}, []string{"result"}),
		lastGroups: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "storefront_order_item_groups_last",
			Help: "Number of groups produced by the last grouping pass",
		}),
	}
}

// RecordPass учитывает один проход группировки.
func (m *FormatterMetrics) RecordPass(operation string, lines, groups, jsonDetails, literalDetails, missingDetails int, duration time.Duration) {
	if m == nil {
		return
	}
	m.linesProcessed.Add(float64(lines))
	m.groupsProduced.Add(float64(groups))
	m.detailsSource.WithLabelValues("json").Add(float64(jsonDetails))
	m.detailsSource.WithLabelValues("literal").Add(float64(literalDetails))
	m.detailsSource.WithLabelValues("missing").Add(float64(missingDetails))
	m.formatDuration.WithLabelValues(operation).Observe(duration.Seconds())
	m.lastGroups.Set(float64(groups))
}

// RecordSummary учитывает запрос сводки заказа: ok, not_found или error.
func (m *FormatterMetrics) RecordSummary(result string) {
	if m == nil {
		return
	}
	m.summariesTotal.WithLabelValues(result).Inc()
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}
