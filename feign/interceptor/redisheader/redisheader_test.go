package redisheader

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofeign/gofeign/feign"
	"github.com/gofeign/gofeign/feign/metadata"
)

func newTestTemplate(t *testing.T) *feign.RequestTemplate {
	t.Helper()
	rt, err := feign.NewRequestTemplate("GET", "/repos/{owner}/{repo}", false, metadata.Exploded)
	require.NoError(t, err)
	return rt
}

func TestInterceptor_Apply_SetsBoundHeaders(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.HSet("feign:headers:github", "token", "s3cr3t")
	mr.HSet("feign:headers:github", "tenant", "acme")

	ic := New(rdb, "feign:headers:github", []Binding{
		{Header: "Authorization", Field: "token"},
		{Header: "X-Tenant", Field: "tenant"},
	}, time.Second)

	rt := newTestTemplate(t)
	require.NoError(t, ic.Apply(rt))

	var auth, tenant string
	for _, h := range rt.Headers() {
		if h.Name == "Authorization" {
			auth = h.Values[0].Raw()
		}
		if h.Name == "X-Tenant" {
			tenant = h.Values[0].Raw()
		}
	}
	assert.Equal(t, "s3cr3t", auth)
	assert.Equal(t, "acme", tenant)
}

func TestInterceptor_Apply_MissingFieldSkipped(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	ic := New(rdb, "feign:headers:missing", []Binding{
		{Header: "Authorization", Field: "token"},
	}, time.Second)

	rt := newTestTemplate(t)
	require.NoError(t, ic.Apply(rt))
	assert.Empty(t, rt.Headers())
}

func TestInterceptor_Apply_NoBindingsIsNoop(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	ic := New(rdb, "feign:headers:github", nil, 0)

	rt := newTestTemplate(t)
	require.NoError(t, ic.Apply(rt))
	assert.Empty(t, rt.Headers())
}

func TestInterceptor_Apply_RedisErrorWrapped(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})

	ic := New(rdb, "feign:headers:github", []Binding{
		{Header: "Authorization", Field: "token"},
	}, 50*time.Millisecond)

	rt := newTestTemplate(t)
	err := ic.Apply(rt)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redisheader:")
}
