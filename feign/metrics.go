package feign

import "time"

// Metrics is the seam for per-operation counters/histograms, implemented
// by feignmetrics against prometheus/client_golang. The handler pipeline
// calls these around every attempt and at the end of every invocation.
type Metrics interface {
	ObserveAttempt(configKey string, statusCode int, err error)
	ObserveRetry(configKey string)
	ObserveInvocation(configKey string, outcome string, d time.Duration)
}

// NopMetrics discards everything; the Builder default when no Metrics
// implementation is configured.
type NopMetrics struct{}

func (NopMetrics) ObserveAttempt(string, int, error)          {}
func (NopMetrics) ObserveRetry(string)                        {}
func (NopMetrics) ObserveInvocation(string, string, time.Duration) {}
