// Package metrics provides Prometheus metrics definitions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "incidentconsole"

var (
	// HTTPRequestDuration tracks console gateway request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "status_code"},
	)

	// APIRequestDuration tracks calls to the incident API.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Incident API call duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "outcome"},
	)

	// FallbacksTotal counts operations served from local data.
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fallback",
			Name:      "total",
			Help:      "Operations answered from demo data or the provisional journal",
		},
		[]string{"operation", "source"},
	)

	// SessionInvalidations counts session teardowns by reason.
	SessionInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "invalidations_total",
			Help:      "Session teardowns by reason",
		},
		[]string{"reason"},
	)
)

// Fallback sources.
const (
	SourceDemo        = "demo"
	SourceProvisional = "provisional"
)

// RecordFallback counts one fallback for operation.
func RecordFallback(operation, source string) {
	FallbacksTotal.WithLabelValues(operation, source).Inc()
}
