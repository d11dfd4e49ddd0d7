// Package loadbalancer adds a weighted-round-robin feign.Target
// (RingTarget) and a helper for widening which response status codes the
// handler treats as retryable, grounded on EdgeComet-engine's
// sharding.Manager (its server-list membership and selection shape,
// simplified here from consistent hashing to plain round robin since a
// declarative client's retry-driven endpoint rotation has no cache-
// affinity requirement to preserve).
package loadbalancer

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/gofeign/gofeign/feign"
)

// Server is one weighted endpoint in a RingTarget's pool.
type Server struct {
	BaseURL string
	Weight  int
}

// RingTarget is a feign.Target that rotates through a static, weighted
// list of servers. Each retry attempt calls Apply again, and Apply
// advances the rotation — so a request that hits a failing endpoint on
// attempt 1 may land on a healthy one on attempt 2, the coupling
// SPEC_FULL.md's retry/target design notes require.
type RingTarget struct {
	name    string
	entries []string // expanded so each server appears Weight times, in order
	cursor  uint64
}

// NewRingTarget builds a RingTarget from name and servers. A server with
// Weight <= 0 is treated as weight 1. Panics if servers is empty — a
// load-balanced target with no endpoints is a construction-time mistake,
// not a runtime condition to recover from.
func NewRingTarget(name string, servers []Server) *RingTarget {
	if len(servers) == 0 {
		panic("loadbalancer: NewRingTarget requires at least one server")
	}
	var entries []string
	for _, s := range servers {
		w := s.Weight
		if w <= 0 {
			w = 1
		}
		for i := 0; i < w; i++ {
			entries = append(entries, s.BaseURL)
		}
	}
	return &RingTarget{name: name, entries: entries}
}

func (r *RingTarget) Name() string { return r.name }

// URL returns the endpoint the next Apply call will use, without
// advancing the rotation.
func (r *RingTarget) URL() string {
	idx := atomic.LoadUint64(&r.cursor) % uint64(len(r.entries))
	return r.entries[idx]
}

// Next advances the rotation and returns the endpoint it landed on.
func (r *RingTarget) Next() string {
	idx := atomic.AddUint64(&r.cursor, 1) - 1
	return r.entries[idx%uint64(len(r.entries))]
}

// Apply sets t's target prefix to the next endpoint in rotation, unless a
// URI-argument override already set an absolute target during template
// building (SPEC_FULL.md §4.5 step 2).
func (r *RingTarget) Apply(t *feign.RequestTemplate) error {
	if t.GetTarget() != "" {
		return nil
	}
	return t.Target(r.Next())
}

var _ feign.Target = (*RingTarget)(nil)

// RetryableStatusCodes parses a comma-separated list of HTTP status
// codes (e.g. "409,423,425") into a membership set, the shape
// SPEC_FULL.md §6 documents for a YAML-configured retryable-status list.
func RetryableStatusCodes(codes string) (map[int]bool, error) {
	set := map[int]bool{}
	if strings.TrimSpace(codes) == "" {
		return set, nil
	}
	for _, part := range strings.Split(codes, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("loadbalancer: invalid status code %q: %w", part, err)
		}
		set[n] = true
	}
	return set, nil
}

// WrapErrorDecoder returns an error decoder that treats any status in
// extra as retryable (wrapping the response into a *feign.RetryableError,
// which the handler's retry loop unwraps via errors.As regardless of
// which pipeline stage produced it) and otherwise delegates to next. Wire
// it as a handler's ErrorDecoder to extend the built-in 408/429/502/503/504
// set with domain-specific transient statuses.
func WrapErrorDecoder(extra map[int]bool, next func(statusCode int, body []byte) error) func(int, []byte) error {
	return func(statusCode int, body []byte) error {
		if extra[statusCode] {
			return feign.NewRetryableError(&feign.HTTPError{StatusCode: statusCode, Body: body})
		}
		if next != nil {
			return next(statusCode, body)
		}
		return &feign.HTTPError{StatusCode: statusCode, Body: body}
	}
}
