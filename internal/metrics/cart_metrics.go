package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics содержит метрики операций корзины.
type CartMetrics struct {
	// Счётчики операций по результату
	operations *prometheus.CounterVec
	// Время выполнения операций и обращений к каталогу
	operationDuration *prometheus.HistogramVec
	catalogDuration   *prometheus.HistogramVec
	// Записи снимка
	snapshotWrites *prometheus.CounterVec
	// Уведомления пользователю
	notifications *prometheus.CounterVec

	lineItems prometheus.Gauge
	units     prometheus.Gauge
}

// NewCartMetrics создаёт метрики в DefaultRegisterer.
func NewCartMetrics() *CartMetrics {
	return NewCartMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCartMetricsWithRegisterer создаёт метрики в указанном реестре.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CartMetrics{
		operations: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopcart_operations_total",
			Help: "Total number of cart operations grouped by operation and result",
		}, []string{"operation", "result"})),
		operationDuration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shopcart_operation_duration_seconds",
			Help:    "Duration of cart operations in seconds, including catalog lookups",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"})),
		catalogDuration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shopcart_catalog_request_duration_seconds",
			Help:    "Duration of stock/product lookups in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"call", "result"})),
		snapshotWrites: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopcart_snapshot_writes_total",
			Help: "Total number of cart snapshot writes grouped by result",
		}, []string{"result"})),
		notifications: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopcart_notifications_total",
			Help: "Total number of user notifications raised by cart operations",
		}, []string{"operation"})),
		lineItems: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shopcart_line_items",
			Help: "Current number of line items in the cart",
		})),
		units: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shopcart_units",
			Help: "Current number of units across all line items",
		})),
	}
}

func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) C {
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(C)
			if !ok {
				panic(fmt.Sprintf("collector already registered with unexpected type %T", alreadyRegistered.ExistingCollector))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector: %v", err))
	}
	return collector
}

// RecordOperation учитывает завершённую операцию.
func (m *CartMetrics) RecordOperation(operation, result string, duration time.Duration) {
	m.operations.WithLabelValues(operation, result).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCatalogCall записывает время обращения к каталогу.
func (m *CartMetrics) RecordCatalogCall(call string, err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.catalogDuration.WithLabelValues(call, result).Observe(duration.Seconds())
}

// RecordSnapshotWrite учитывает запись снимка.
func (m *CartMetrics) RecordSnapshotWrite(err error) {
	if err != nil {
		m.snapshotWrites.WithLabelValues("error").Inc()
		return
	}
	m.snapshotWrites.WithLabelValues("ok").Inc()
}

// RecordNotification учитывает уведомление пользователю.
func (m *CartMetrics) RecordNotification(operation string) {
	m.notifications.WithLabelValues(operation).Inc()
}

// SetCartSize выставляет размер корзины.
func (m *CartMetrics) SetCartSize(lineItems, units int) {
	m.lineItems.Set(float64(lineItems))
	m.units.Set(float64(units))
}
