package jdb

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the client's request
// lifecycle. It is safe for concurrent use; every method is a no-op on a nil
// collector, so instrumentation stays opt-in.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	errorsTotal      *prometheus.CounterVec

	registry prometheus.Registerer
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "jdb_client_requests_total",
				Help: "Total number of jdb operations that produced an HTTP status",
			},
			[]string{"op", "status"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jdb_client_request_duration_seconds",
				Help:    "Duration of jdb operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "jdb_client_requests_in_flight",
				Help: "Number of jdb operations currently in flight",
			},
			[]string{"op"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "jdb_client_errors_total",
				Help: "Total number of jdb operation failures by kind",
			},
			[]string{"op", "kind"},
		),
		registry: registry,
	}
}

// RecordCall records one exchange that produced an HTTP status.
func (mc *MetricsCollector) RecordCall(op string, status int, duration time.Duration) {
	if mc == nil {
		return
	}
	mc.requestsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
	mc.requestDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordCallStart increments the in-flight gauge.
func (mc *MetricsCollector) RecordCallStart(op string) {
	if mc == nil {
		return
	}
	mc.requestsInFlight.WithLabelValues(op).Inc()
}

// RecordCallEnd decrements the in-flight gauge.
func (mc *MetricsCollector) RecordCallEnd(op string) {
	if mc == nil {
		return
	}
	mc.requestsInFlight.WithLabelValues(op).Dec()
}

// RecordError increments the failure counter for an error kind.
func (mc *MetricsCollector) RecordError(op, kind string) {
	if mc == nil {
		return
	}
	mc.errorsTotal.WithLabelValues(op, kind).Inc()
}

// Registerer exposes the registerer the collector's metrics live on.
func (mc *MetricsCollector) Registerer() prometheus.Registerer {
	if mc == nil {
		return nil
	}
	return mc.registry
}
