// Package feignmetrics adapts EdgeComet-engine's PrometheusMetrics shape
// (per-concern CounterVec/HistogramVec fields, registered once against a
// prometheus.Registerer, an http.Handler for the scrape endpoint) into a
// feign.Metrics implementation keyed by operation config key and status
// code range instead of host/dimension.
package feignmetrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements feign.Metrics against client_golang,
// grounded on internal/edge/metrics.PrometheusMetrics's field/registration
// shape.
type PrometheusMetrics struct {
	attemptsTotal   *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	retriesTotal    *prometheus.CounterVec
	invocationTotal *prometheus.CounterVec
	invocationTime  *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec

	handler http.Handler
}

// New creates a PrometheusMetrics registered against the default
// registerer.
func New(namespace string) *PrometheusMetrics {
	return NewWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a PrometheusMetrics registered against registerer,
// allowing an isolated registry in tests.
func NewWithRegistry(namespace string, registerer prometheus.Registerer) *PrometheusMetrics {
	pm := &PrometheusMetrics{
		attemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feign",
			Name:      "attempts_total",
			Help:      "Total number of HTTP attempts made by declarative clients, by config key and status range",
		}, []string{"config_key", "status_range"}),

		attemptDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feign",
			Name:      "attempt_duration_seconds",
			Help:      "Time taken by one HTTP attempt",
			Buckets:   prometheus.DefBuckets,
		}, []string{"config_key"}),

		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feign",
			Name:      "retries_total",
			Help:      "Total number of retry decisions made",
		}, []string{"config_key"}),

		invocationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feign",
			Name:      "invocations_total",
			Help:      "Total number of completed client invocations by outcome",
		}, []string{"config_key", "outcome"}),

		invocationTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feign",
			Name:      "invocation_duration_seconds",
			Help:      "Time taken by a full invocation, including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"config_key", "outcome"}),

		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feign",
			Name:      "errors_total",
			Help:      "Total number of transport-level errors by config key",
		}, []string{"config_key"}),
	}

	registerer.MustRegister(
		pm.attemptsTotal,
		pm.attemptDuration,
		pm.retriesTotal,
		pm.invocationTotal,
		pm.invocationTime,
		pm.errorsTotal,
	)

	gatherer, ok := registerer.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}
	pm.handler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	return pm
}

// ObserveAttempt records one HTTP attempt. A non-nil err (transport
// failure, before a status code exists) is counted separately from a
// status-bearing attempt.
func (pm *PrometheusMetrics) ObserveAttempt(configKey string, statusCode int, err error) {
	if err != nil {
		pm.errorsTotal.WithLabelValues(configKey).Inc()
		return
	}
	pm.attemptsTotal.WithLabelValues(configKey, statusCodeRange(statusCode)).Inc()
}

// ObserveAttemptDuration records how long one attempt took. Not part of
// feign.Metrics directly — the handler only calls ObserveAttempt today —
// kept as a public method so a caller building a richer Metrics wrapper
// can compose it in.
func (pm *PrometheusMetrics) ObserveAttemptDuration(configKey string, d time.Duration) {
	pm.attemptDuration.WithLabelValues(configKey).Observe(d.Seconds())
}

// ObserveRetry records one retry decision for configKey.
func (pm *PrometheusMetrics) ObserveRetry(configKey string) {
	pm.retriesTotal.WithLabelValues(configKey).Inc()
}

// ObserveInvocation records one completed invocation (all attempts done)
// by its outcome ("success", "error", "exhausted") and total duration.
func (pm *PrometheusMetrics) ObserveInvocation(configKey string, outcome string, d time.Duration) {
	pm.invocationTotal.WithLabelValues(configKey, outcome).Inc()
	pm.invocationTime.WithLabelValues(configKey, outcome).Observe(d.Seconds())
}

// Handler returns the http.Handler serving the Prometheus scrape endpoint.
func (pm *PrometheusMetrics) Handler() http.Handler {
	return pm.handler
}

func statusCodeRange(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
