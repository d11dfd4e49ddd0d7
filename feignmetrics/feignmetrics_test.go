package feignmetrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics_Recording(t *testing.T) {
	registry := prometheus.NewRegistry()
	pm := NewWithRegistry("gofeign", registry)

	pm.ObserveAttempt("Client#Get", 200, nil)
	pm.ObserveAttempt("Client#Get", 503, nil)
	pm.ObserveAttempt("Client#Get", 0, errors.New("dial tcp: timeout"))
	pm.ObserveRetry("Client#Get")
	pm.ObserveInvocation("Client#Get", "success", 150*time.Millisecond)
	pm.ObserveAttemptDuration("Client#Get", 50*time.Millisecond)

	assert.NotNil(t, pm)
}

func TestPrometheusMetrics_HTTPEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	pm := NewWithRegistry("gofeign", registry)

	pm.ObserveAttempt("Client#Get", 200, nil)
	pm.ObserveInvocation("Client#Get", "success", time.Millisecond*100)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	pm.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "gofeign_feign_attempts_total")
	assert.Contains(t, body, "gofeign_feign_invocations_total")
	assert.Contains(t, body, "# HELP")
	assert.Contains(t, body, "# TYPE")
}

func TestStatusCodeRange(t *testing.T) {
	cases := map[int]string{200: "2xx", 301: "3xx", 404: "4xx", 503: "5xx", 0: "unknown"}
	for status, want := range cases {
		assert.Equal(t, want, statusCodeRange(status))
	}
}
