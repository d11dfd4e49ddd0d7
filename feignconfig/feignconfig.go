// Package feignconfig loads a declarative-client deployment's YAML
// configuration, grounded on EdgeComet-engine's internal/common/config
// (EGConfigManager: read file, strict-decode, apply defaults) simplified
// to the single-file case — a feign client has no host-include glob to
// resolve.
package feignconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/gofeign/gofeign/feign"
	"github.com/gofeign/gofeign/feignlog"
	"github.com/gofeign/gofeign/yamlutil"
)

// Config is the top-level YAML document read by Load, covering every
// Builder knob SPEC_FULL.md §6 lists plus the ambient/domain-stack
// packages' own configuration.
type Config struct {
	Target  TargetConfig  `yaml:"target"`
	Options OptionsConfig `yaml:"options"`
	Retry   RetryConfig   `yaml:"retry"`
	Log     feignlog.Config `yaml:"log"`

	Decode404        bool   `yaml:"decode_404"`
	CloseAfterDecode bool   `yaml:"close_after_decode"`
	Propagation      string `yaml:"exception_propagation"` // "original" | "unwrap"

	Metrics  MetricsConfig  `yaml:"metrics"`
	Breaker  BreakerConfig  `yaml:"breaker"`
	Transport string        `yaml:"transport"` // "stdlib" | "fasthttp"

	// RetryableStatusCodes is a comma-separated list of extra HTTP status
	// codes (beyond the handler's built-in 408/429/502/503/504) that
	// feign/loadbalancer.RetryableStatusCodes should treat as retryable.
	RetryableStatusCodes string `yaml:"retryable_status_codes"`
}

// TargetConfig names the base URL the client's relative URI templates are
// resolved against.
type TargetConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
}

// OptionsConfig mirrors feign.Options, expressed in YAML-friendly
// duration strings ("5s") instead of time.Duration.
type OptionsConfig struct {
	ConnectTimeout  string `yaml:"connect_timeout"`
	ReadTimeout     string `yaml:"read_timeout"`
	FollowRedirects *bool  `yaml:"follow_redirects,omitempty"`
}

// RetryConfig mirrors retry.NewDefault's three parameters; MaxAttempts
// <= 0 means no retrying (retry.Never).
type RetryConfig struct {
	Period     string `yaml:"period"`
	MaxPeriod  string `yaml:"max_period"`
	MaxAttempts int   `yaml:"max_attempts"`
}

// MetricsConfig configures feignmetrics.New.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// BreakerConfig configures feign/breaker.Wrap.
type BreakerConfig struct {
	Enabled              bool   `yaml:"enabled"`
	GroupName            string `yaml:"group_name"`
	MaxRequestsHalfOpen  uint32 `yaml:"max_requests_half_open"`
	Interval             string `yaml:"interval"`
	Timeout              string `yaml:"timeout"`
	ConsecutiveFailures  uint32 `yaml:"consecutive_failures_to_trip"`
}

// Load reads path, strict-decodes it as YAML (unknown fields error), and
// applies the same built-in defaults NewBuilder() would use for any field
// left zero.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("feignconfig: reading %s: %w", path, err)
	}
	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("feignconfig: parsing %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Options.ConnectTimeout == "" {
		c.Options.ConnectTimeout = "10s"
	}
	if c.Options.ReadTimeout == "" {
		c.Options.ReadTimeout = "60s"
	}
	if c.Options.FollowRedirects == nil {
		t := true
		c.Options.FollowRedirects = &t
	}
	if c.Propagation == "" {
		c.Propagation = "original"
	}
	if c.Transport == "" {
		c.Transport = "stdlib"
	}
	if c.Log.Level == "" {
		c.Log.Level = feignlog.LogLevelInfo
	}
	if !c.Log.Console.Enabled && !c.Log.File.Enabled {
		c.Log.Console.Enabled = true
	}
	if c.Log.Console.Enabled && c.Log.Console.Format == "" {
		c.Log.Console.Format = feignlog.LogFormatConsole
	}
	if c.Log.File.Enabled && c.Log.File.Format == "" {
		c.Log.File.Format = feignlog.LogFormatJSON
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "gofeign"
	}
	if c.Breaker.Enabled && c.Breaker.GroupName == "" {
		c.Breaker.GroupName = c.Target.Name
	}
}

// Validate checks the invariants Load's defaults can't silently fix.
func (c *Config) Validate() error {
	if c.Target.BaseURL == "" {
		return fmt.Errorf("feignconfig: target.base_url is required")
	}
	if c.Propagation != "original" && c.Propagation != "unwrap" {
		return fmt.Errorf("feignconfig: exception_propagation must be 'original' or 'unwrap', got %q", c.Propagation)
	}
	if c.Transport != "stdlib" && c.Transport != "fasthttp" {
		return fmt.Errorf("feignconfig: transport must be 'stdlib' or 'fasthttp', got %q", c.Transport)
	}
	if _, err := time.ParseDuration(c.Options.ConnectTimeout); err != nil {
		return fmt.Errorf("feignconfig: options.connect_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Options.ReadTimeout); err != nil {
		return fmt.Errorf("feignconfig: options.read_timeout: %w", err)
	}
	if c.Retry.MaxAttempts > 0 {
		if _, err := time.ParseDuration(c.Retry.Period); err != nil {
			return fmt.Errorf("feignconfig: retry.period: %w", err)
		}
		if _, err := time.ParseDuration(c.Retry.MaxPeriod); err != nil {
			return fmt.Errorf("feignconfig: retry.max_period: %w", err)
		}
	}
	return nil
}

// ConnectTimeoutDuration parses Options.ConnectTimeout, already validated
// by Load/Validate.
func (c *Config) ConnectTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Options.ConnectTimeout)
	return d
}

// ReadTimeoutDuration parses Options.ReadTimeout, already validated by
// Load/Validate.
func (c *Config) ReadTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Options.ReadTimeout)
	return d
}

// RetryPeriodDuration parses Retry.Period, already validated by Load when
// Retry.MaxAttempts > 0.
func (c *Config) RetryPeriodDuration() time.Duration {
	d, _ := time.ParseDuration(c.Retry.Period)
	return d
}

// RetryMaxPeriodDuration parses Retry.MaxPeriod, already validated by Load
// when Retry.MaxAttempts > 0.
func (c *Config) RetryMaxPeriodDuration() time.Duration {
	d, _ := time.ParseDuration(c.Retry.MaxPeriod)
	return d
}

// PropagationPolicy converts Propagation into a feign.ExceptionPropagationPolicy.
func (c *Config) PropagationPolicy() feign.ExceptionPropagationPolicy {
	if c.Propagation == "unwrap" {
		return feign.Unwrap
	}
	return feign.Original
}
