// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pos"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	salesTotal     *prometheus.CounterVec
	salesAmount    *prometheus.CounterVec
	salesCancelled prometheus.Counter
	ncfIssued      *prometheus.CounterVec
	ncfRemaining   *prometheus.GaugeVec
	purchases      prometheus.Counter
	whatsApp       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	m.salesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sales_total",
		Help:      "Completed sales by payment method and NCF type.",
	}, []string{"payment_method", "ncf_type"})
	m.salesAmount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sales_amount_dop_total",
		Help:      "Sales amount in pesos by payment method.",
	}, []string{"payment_method"})
	m.salesCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sales_cancelled_total",
		Help:      "Cancelled sales.",
	})
	m.ncfIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ncf_issued_total",
		Help:      "NCF numbers issued by type.",
	}, []string{"type"})
	m.ncfRemaining = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ncf_remaining",
		Help:      "Numbers left in the sequence last used for each type.",
	}, []string{"type"})
	m.purchases = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchase_orders_received_total",
		Help:      "Purchase orders received into stock.",
	})
	m.whatsApp = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "whatsapp_messages_total",
		Help:      "WhatsApp messages by kind and status.",
	}, []string{"kind", "status"})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration,
		m.salesTotal, m.salesAmount, m.salesCancelled,
		m.ncfIssued, m.ncfRemaining,
		m.purchases, m.whatsApp,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) SaleCompleted(paymentMethod, ncfType string, amount float64) {
	m.salesTotal.WithLabelValues(paymentMethod, ncfType).Inc()
	m.salesAmount.WithLabelValues(paymentMethod).Add(amount)
}

func (m *Metrics) SaleCancelled() {
	m.salesCancelled.Inc()
}

func (m *Metrics) NcfIssued(ncfType string, remaining int64) {
	m.ncfIssued.WithLabelValues(ncfType).Inc()
	m.ncfRemaining.WithLabelValues(ncfType).Set(float64(remaining))
}

func (m *Metrics) PurchaseReceived() {
	m.purchases.Inc()
}

func (m *Metrics) WhatsAppMessage(kind, status string) {
	m.whatsApp.WithLabelValues(kind, status).Inc()
}
