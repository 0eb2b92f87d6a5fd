package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expertrait",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	normalizationAnomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expertrait",
			Name:      "normalization_anomalies_total",
			Help:      "Booking records that needed coercion or were dropped, by anomaly kind.",
		},
		[]string{"kind"},
	)

	exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expertrait",
			Name:      "exports_total",
			Help:      "Completed dashboard exports by format.",
		},
		[]string{"format"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, normalizationAnomalies, exportsTotal)
	})
}

// IncHTTP increments the request counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncAnomaly increments the anomaly counter for a normalization kind.
func IncAnomaly(kind string) {
	normalizationAnomalies.WithLabelValues(kind).Inc()
}

// IncExport increments the export counter for a format label.
func IncExport(format string) {
	exportsTotal.WithLabelValues(format).Inc()
}
