package feign

import (
	"time"

	"github.com/gofeign/gofeign/feign/metadata"
)

// ExceptionPropagationPolicy controls what a caller sees once retries are
// exhausted or an attempt fails terminally.
type ExceptionPropagationPolicy int

const (
	// Original returns the error produced by the pipeline as-is (it may
	// already be a *RetryableError, *HTTPError, etc.).
	Original ExceptionPropagationPolicy = iota
	// Unwrap returns errors.Unwrap(err) when non-nil, surfacing the
	// underlying cause instead of this package's wrapper type.
	Unwrap
)

// Options carries per-call and per-client transport knobs. A per-call
// Options argument replaces the Builder-level value as a whole; its zero
// fields are used as they are, not filled in from DefaultOptions. Aliased
// to metadata.Options so
// feign/contract can recognize an Options-typed operation parameter (the
// "options argument" of spec.md §4.4) without importing this package.
type Options = metadata.Options

// DefaultOptions mirrors the reference implementation's defaults: 10s
// connect, 60s read, redirects followed, 404 treated as an HTTP error
// rather than an empty value.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout:  10 * time.Second,
		ReadTimeout:     60 * time.Second,
		FollowRedirects: true,
		Decode404:       false,
	}
}

// MaxBufferedBody is the longest response-body prefix a LogFull attempt
// log carries. Bodies that are decoded are read in full whatever their
// size, and a raw *http.Response return is handed back unbuffered.
const MaxBufferedBody = 8 * 1024
