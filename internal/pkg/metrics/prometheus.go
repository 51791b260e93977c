package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint", "status"},
	)
	enrichmentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_enrichment_total",
			Help: "Product lookups made while listing notes, by outcome.",
		},
		[]string{"outcome"},
	)
	metafieldSyncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metafield_sync_total",
			Help: "Metafield writes, by outcome.",
		},
		[]string{"outcome"},
	)
	webhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhooks_received_total",
			Help: "Webhooks received, by normalized topic.",
		},
		[]string{"topic"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		enrichmentTotal,
		metafieldSyncTotal,
		webhooksTotal,
	)
}

func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

func RecordEnrichment(ok bool) {
	enrichmentTotal.WithLabelValues(outcome(ok)).Inc()
}

func RecordMetafieldSync(ok bool) {
	metafieldSyncTotal.WithLabelValues(outcome(ok)).Inc()
}

func RecordWebhook(topic string) {
	webhooksTotal.WithLabelValues(topic).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func classifyStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return "unknown"
}

func Handler() http.Handler {
	return promhttp.Handler()
}
