package feignconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
target:
  name: github
  base_url: https://api.github.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10s", cfg.Options.ConnectTimeout)
	assert.Equal(t, "60s", cfg.Options.ReadTimeout)
	assert.True(t, *cfg.Options.FollowRedirects)
	assert.Equal(t, "original", cfg.Propagation)
	assert.Equal(t, "stdlib", cfg.Transport)
	assert.True(t, cfg.Log.Console.Enabled)
	assert.Equal(t, "gofeign", cfg.Metrics.Namespace)
}

func TestLoad_RejectsUnknownField(t *testing.T) {
	path := writeConfig(t, `
target:
  name: github
  base_url: https://api.github.com
targett: oops
`)

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "unknown configuration field")
}

func TestLoad_MissingBaseURL(t *testing.T) {
	path := writeConfig(t, `
target:
  name: github
`)

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "target.base_url")
}

func TestLoad_InvalidPropagationPolicy(t *testing.T) {
	path := writeConfig(t, `
target:
  base_url: https://api.github.com
exception_propagation: bogus
`)

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "exception_propagation")
}

func TestLoad_InvalidTransport(t *testing.T) {
	path := writeConfig(t, `
target:
  base_url: https://api.github.com
transport: quic
`)

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "transport")
}

func TestLoad_FullRoundTrip(t *testing.T) {
	path := writeConfig(t, `
target:
  name: github
  base_url: https://api.github.com
options:
  connect_timeout: 2s
  read_timeout: 5s
  follow_redirects: false
retry:
  period: 100ms
  max_period: 1s
  max_attempts: 5
decode_404: true
close_after_decode: false
exception_propagation: unwrap
log:
  level: debug
  console:
    enabled: true
    format: json
metrics:
  enabled: true
  namespace: myapp
breaker:
  enabled: true
  group_name: github
  max_requests_half_open: 3
  interval: 30s
  timeout: 10s
  consecutive_failures_to_trip: 5
transport: fasthttp
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "github", cfg.Target.Name)
	assert.Equal(t, "https://api.github.com", cfg.Target.BaseURL)
	assert.False(t, *cfg.Options.FollowRedirects)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.True(t, cfg.Decode404)
	assert.Equal(t, "unwrap", cfg.Propagation)
	assert.Equal(t, "myapp", cfg.Metrics.Namespace)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, "fasthttp", cfg.Transport)
	assert.Equal(t, 2*time.Second, cfg.ConnectTimeoutDuration())
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidRetryDuration(t *testing.T) {
	path := writeConfig(t, `
target:
  base_url: https://api.github.com
retry:
  period: not-a-duration
  max_period: 1s
  max_attempts: 3
`)

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "retry.period")
}
