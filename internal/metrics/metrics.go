// Package metrics defines the Prometheus collectors for the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultBuckets is a common set of latency histogram buckets in seconds.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics bundles the request-level collectors, registered on its own
// registry so tests can construct isolated instances.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates a Metrics with a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tripledger_http_requests_total",
			Help: "Number of HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tripledger_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: DefaultBuckets,
		}, []string{"method", "route"}),
	}
}
