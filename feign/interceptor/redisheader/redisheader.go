// Package redisheader provides a feign.Interceptor that resolves one or
// more header values from a shared Redis hash at request time, grounded
// on EdgeComet-engine's internal/common/redis.Client (go-redis/v9
// wrapper, context-timeout-per-call convention).
package redisheader

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gofeign/gofeign/feign"
)

// Binding maps a Redis hash field to the request header it should
// populate.
type Binding struct {
	Header string
	Field  string
}

// Interceptor resolves Header.Field bindings from a single Redis hash and
// attaches the results as request headers on every attempt. A Builder's
// Chain holds one Interceptor per hash key it needs to poll — binding a
// per-operation key is the caller's job (pass a Key already qualified by
// the operation, e.g. "feign:headers:github-client").
type Interceptor struct {
	rdb      *redis.Client
	key      string
	bindings []Binding
	timeout  time.Duration
}

// New builds an Interceptor that polls key on every Apply. timeout bounds
// each HGetAll call; zero means 2 seconds, matching the order of
// magnitude of the teacher's Ping timeout.
func New(rdb *redis.Client, key string, bindings []Binding, timeout time.Duration) *Interceptor {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Interceptor{rdb: rdb, key: key, bindings: bindings, timeout: timeout}
}

var _ feign.Interceptor = (*Interceptor)(nil)

// Apply fetches the hash and sets any bound header whose field is
// present in it. A Redis error aborts the attempt rather than silently
// sending the request without its dynamic headers; the handler returns
// it to the caller as is, without a retry (unlike a transport dial
// failure, which it marks retryable).
func (i *Interceptor) Apply(t *feign.RequestTemplate) error {
	if len(i.bindings) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	values, err := i.rdb.HGetAll(ctx, i.key).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("redisheader: fetching %s: %w", i.key, err)
	}

	for _, b := range i.bindings {
		v, ok := values[b.Field]
		if !ok || v == "" {
			continue
		}
		if err := t.AddHeader(b.Header, []string{v}); err != nil {
			return fmt.Errorf("redisheader: setting header %q: %w", b.Header, err)
		}
	}
	return nil
}
