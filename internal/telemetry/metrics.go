// Package telemetry exposes Prometheus metrics for the HTTP front end, the
// upstream clients and the forecast cache.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers in one
// process never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	upstreamCalls   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
}

// New creates and registers the skycast collectors. Process and Go runtime
// collectors are included when withRuntime is true.
func New(service string, withRuntime bool) *Metrics {
	constLabels := prometheus.Labels{"service": service}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total requests by endpoint, method, and status.",
				ConstLabels: constLabels,
			},
			[]string{"endpoint", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "Request latency by endpoint and method.",
				ConstLabels: constLabels,
				Buckets:     prometheus.DefBuckets,
			},
			[]string{"endpoint", "method"},
		),
		upstreamCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "upstream_requests_total",
				Help:        "Outbound requests by upstream and outcome.",
				ConstLabels: constLabels,
			},
			[]string{"upstream", "outcome"},
		),
		upstreamLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "upstream_request_duration_seconds",
				Help:        "Outbound request latency by upstream.",
				ConstLabels: constLabels,
				Buckets:     []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"upstream"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "forecast_cache_lookups_total",
				Help:        "Forecast cache lookups by result.",
				ConstLabels: constLabels,
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(m.requests, m.requestDuration, m.upstreamCalls, m.upstreamLatency, m.cacheLookups)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// RecordRequest records one served HTTP request.
func (m *Metrics) RecordRequest(method, endpoint, status string, d time.Duration) {
	m.requests.WithLabelValues(endpoint, method, status).Inc()
	m.requestDuration.WithLabelValues(endpoint, method).Observe(d.Seconds())
}

// ObserveUpstream records one logical upstream call after retries. outcome
// is "ok", the final HTTP status code, or the error code of the failure.
func (m *Metrics) ObserveUpstream(upstream, outcome string, d time.Duration) {
	m.upstreamCalls.WithLabelValues(upstream, outcome).Inc()
	m.upstreamLatency.WithLabelValues(upstream).Observe(d.Seconds())
}

// ObserveCache records a forecast cache lookup result.
func (m *Metrics) ObserveCache(result string) {
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
