package loadbalancer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofeign/gofeign/feign"
	"github.com/gofeign/gofeign/feign/metadata"
)

func newTemplate(t *testing.T) *feign.RequestTemplate {
	t.Helper()
	rt, err := feign.NewRequestTemplate("GET", "/ping", false, metadata.Exploded)
	require.NoError(t, err)
	return rt
}

func TestRingTarget_RoundRobin(t *testing.T) {
	rt := NewRingTarget("svc", []Server{
		{BaseURL: "http://a"},
		{BaseURL: "http://b"},
	})

	assert.Equal(t, "http://a", rt.Next())
	assert.Equal(t, "http://b", rt.Next())
	assert.Equal(t, "http://a", rt.Next())
}

func TestRingTarget_Weighted(t *testing.T) {
	rt := NewRingTarget("svc", []Server{
		{BaseURL: "http://a", Weight: 2},
		{BaseURL: "http://b", Weight: 1},
	})

	seen := map[string]int{}
	for i := 0; i < 3; i++ {
		seen[rt.Next()]++
	}
	assert.Equal(t, 2, seen["http://a"])
	assert.Equal(t, 1, seen["http://b"])
}

func TestRingTarget_ApplySetsTemplateTarget(t *testing.T) {
	rt := NewRingTarget("svc", []Server{{BaseURL: "http://a"}, {BaseURL: "http://b"}})
	tmpl := newTemplate(t)

	require.NoError(t, rt.Apply(tmpl))
	require.NoError(t, tmpl.Resolve(nil))
	assert.Equal(t, "http://a/ping", tmpl.URL())
}

func TestRingTarget_PanicsOnEmptyServers(t *testing.T) {
	assert.Panics(t, func() { NewRingTarget("svc", nil) })
}

func TestRetryableStatusCodes(t *testing.T) {
	set, err := RetryableStatusCodes("409, 423,425")
	require.NoError(t, err)
	assert.True(t, set[409])
	assert.True(t, set[423])
	assert.True(t, set[425])
	assert.False(t, set[500])
}

func TestRetryableStatusCodes_Empty(t *testing.T) {
	set, err := RetryableStatusCodes("")
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestRetryableStatusCodes_Invalid(t *testing.T) {
	_, err := RetryableStatusCodes("409,nope")
	assert.Error(t, err)
}

func TestWrapErrorDecoder_RetryableStatus(t *testing.T) {
	extra, err := RetryableStatusCodes("409")
	require.NoError(t, err)

	decoder := WrapErrorDecoder(extra, nil)
	err = decoder(409, []byte("conflict"))

	var retryable *feign.RetryableError
	assert.ErrorAs(t, err, &retryable)
}

func TestWrapErrorDecoder_FallsThroughToNext(t *testing.T) {
	extra, err := RetryableStatusCodes("409")
	require.NoError(t, err)

	called := false
	decoder := WrapErrorDecoder(extra, func(status int, body []byte) error {
		called = true
		return &feign.HTTPError{StatusCode: status, Body: body}
	})

	err = decoder(500, []byte("boom"))
	assert.True(t, called)
	var httpErr *feign.HTTPError
	assert.ErrorAs(t, err, &httpErr)
}
