// Package retry implements the per-invocation retry state machine of
// spec.md §4.9: exponential backoff with an explicit retry-after override,
// cloned fresh for every call so attempt counters are never shared.
package retry

import (
	"context"
	"errors"
	"time"
)

// RetryAfterer is implemented by errors that carry an explicit
// retry-after deadline (e.g. from a "Retry-After" response header). The
// retry package never imports the feign package's error types directly —
// this structural interface is how it recognizes them.
type RetryAfterer interface {
	RetryAfter() (time.Time, bool)
}

// Retryer decides, per failed attempt, whether to retry and how long to
// wait first. Clone must be called once per invocation so attempt state
// is never shared between concurrent calls (spec.md §5, §8).
type Retryer interface {
	Clone() Retryer
	// Continue blocks for the computed backoff interval and returns nil
	// if the caller should retry, or the original err, unchanged, if
	// attempts are exhausted or ctx is done first.
	Continue(ctx context.Context, err error) error
}

// ErrAttemptsExhausted is exported for callers that want to distinguish
// "gave up after N attempts" from other failure causes via errors.Is
// against a *Default they constructed with a wrapping Continue of their
// own; the built-in Default.Continue deliberately returns the original
// err unchanged on exhaustion (see TestDefault_ContinueExhaustsAfterMaxAttempts)
// so retry exhaustion never hides the last real failure behind a sentinel.
var ErrAttemptsExhausted = errors.New("retry: max attempts exhausted")

// Default is the exponential-backoff Retryer: interval(a) =
// min(period * 1.5^(a-1), maxPeriod) for attempt a, unless the failing
// error carries an explicit RetryAfter, in which case the interval to
// that deadline is used instead (clamped to [0, maxPeriod]).
type Default struct {
	attempt        int
	period         time.Duration
	maxPeriod      time.Duration
	maxAttempts    int
	sleptForMillis int64
}

// NewDefault constructs a Default retryer. attempt starts at 1 per
// spec.md §3.
func NewDefault(period, maxPeriod time.Duration, maxAttempts int) *Default {
	return &Default{
		attempt:     1,
		period:      period,
		maxPeriod:   maxPeriod,
		maxAttempts: maxAttempts,
	}
}

// Clone returns a fresh Default with attempt reset to 1, sharing only the
// immutable configuration (period, maxPeriod, maxAttempts).
func (d *Default) Clone() Retryer {
	return &Default{
		attempt:     1,
		period:      d.period,
		maxPeriod:   d.maxPeriod,
		maxAttempts: d.maxAttempts,
	}
}

// Interval computes the backoff interval for the current attempt,
// without consuming it — exposed primarily for tests of the formula in
// spec.md §8.
func (d *Default) Interval(err error) time.Duration {
	if rae, ok := err.(RetryAfterer); ok {
		if deadline, has := rae.RetryAfter(); has {
			return clamp(time.Until(deadline), 0, d.maxPeriod)
		}
	}
	backoff := float64(d.period) * pow15(d.attempt-1)
	return clamp(time.Duration(backoff), 0, d.maxPeriod)
}

func (d *Default) Continue(ctx context.Context, err error) error {
	d.attempt++
	if d.attempt > d.maxAttempts {
		return err
	}
	wait := d.Interval(err)
	if wait < 0 {
		wait = 0
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return err
	case <-timer.C:
		d.sleptForMillis += wait.Milliseconds()
		return nil
	}
}

// Attempt returns the current (1-based) attempt number.
func (d *Default) Attempt() int { return d.attempt }

// SleptForMillis returns the cumulative backoff time actually slept.
func (d *Default) SleptForMillis() int64 { return d.sleptForMillis }

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

// pow15 computes 1.5^n for non-negative integer n without importing math
// (n is always small — attempt counts stay in the single/low-double digits).
func pow15(n int) float64 {
	if n <= 0 {
		return 1
	}
	result := 1.0
	for i := 0; i < n; i++ {
		result *= 1.5
	}
	return result
}

// never is the "never retry" policy: a zero-state singleton that always
// re-raises. Clone returns itself since there is no per-call state.
type never struct{}

func (never) Clone() Retryer                          { return Never }
func (never) Continue(_ context.Context, err error) error { return err }

// Never is the shared "never retry" Retryer value.
var Never Retryer = never{}
