package feign

import "time"

// LogLevel controls how much detail an attempt logs, per SPEC_FULL.md §4.7.
type LogLevel int

const (
	// LogNone disables per-attempt logging entirely.
	LogNone LogLevel = iota
	// LogBasic logs method, URL, status, and duration.
	LogBasic
	// LogHeaders adds request and response headers.
	LogHeaders
	// LogFull adds the response body, truncated by the handler to
	// MaxBufferedBody bytes; request bodies are not logged.
	LogFull
)

// Attempt summarizes one HTTP attempt for the Logger, populated by the
// handler pipeline after each Transport.Do.
type Attempt struct {
	ConfigKey      string
	CorrelationID  string
	Method         string
	URL            string
	RequestHeaders map[string][]string
	RequestBody    []byte
	StatusCode     int
	ResponseHeaders map[string][]string
	ResponseBody   []byte
	Duration       time.Duration
	AttemptNumber  int
	Err            error
}

// Logger is the seam SPEC_FULL.md §1 leaves open for "logging sinks
// beyond the logger interface" — feignlog.NewLogger builds a zap-backed
// *feignlog.DynamicLogger that implements this.
type Logger interface {
	LogAttempt(level LogLevel, a Attempt)
}

// NopLogger discards everything; the Builder default when no Logger is
// configured.
type NopLogger struct{}

func (NopLogger) LogAttempt(LogLevel, Attempt) {}
