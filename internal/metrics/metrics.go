package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	PurchasesTotal        *prometheus.CounterVec
	TopupsInitiatedTotal  *prometheus.CounterVec
	WebhookCallbacksTotal *prometheus.CounterVec

	DBQueryDuration *prometheus.HistogramVec

	ReconciliationInconsistencies prometheus.Counter
}

func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers on a caller-supplied registry. Tests use a fresh
// registry per case to avoid duplicate-registration panics.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telebotshop_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telebotshop_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		PurchasesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telebotshop_purchases_total",
				Help: "Settlement outcomes by result",
			},
			[]string{"outcome"},
		),
		TopupsInitiatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telebotshop_topups_initiated_total",
				Help: "Topup initiation outcomes by result",
			},
			[]string{"outcome"},
		),
		WebhookCallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telebotshop_webhook_callbacks_total",
				Help: "Webhook deliveries by result",
			},
			[]string{"result"},
		),
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telebotshop_db_query_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ReconciliationInconsistencies: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "telebotshop_reconciliation_inconsistencies_total",
				Help: "Committed payment transitions whose follow-up credit failed",
			},
		),
	}
}

func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) RecordPurchase(outcome string) {
	m.PurchasesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordTopup(outcome string) {
	m.TopupsInitiatedTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCallback(result string) {
	m.WebhookCallbacksTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordDBQuery(operation string, duration time.Duration) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
