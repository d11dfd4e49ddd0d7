package feign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofeign/gofeign/feign/metadata"
)

func TestResolve_WellFormedURL_NoUnresolvedBraces(t *testing.T) {
	rt, err := NewRequestTemplate("GET", "/repos/{owner}/{repo}/contributors", true, metadata.Exploded)
	require.NoError(t, err)
	require.NoError(t, rt.Target("https://api.github.com"))

	require.NoError(t, rt.Resolve(map[string]interface{}{"owner": "golang", "repo": "go"}))
	assert.Equal(t, "https://api.github.com/repos/golang/go/contributors", rt.URL())
	assert.NotContains(t, rt.URL(), "{")
}

func TestResolve_MissingPathVariable_ReturnsError(t *testing.T) {
	rt, err := NewRequestTemplate("GET", "/repos/{owner}", true, metadata.Exploded)
	require.NoError(t, err)
	require.NoError(t, rt.Target("https://api.github.com"))

	err = rt.Resolve(map[string]interface{}{})
	assert.ErrorIs(t, err, ErrUnresolvedURIVariable)
}

func TestRequestTemplate_MutatorsFailAfterResolve(t *testing.T) {
	rt, err := NewRequestTemplate("GET", "/x", true, metadata.Exploded)
	require.NoError(t, err)
	require.NoError(t, rt.Resolve(map[string]interface{}{}))

	assert.ErrorIs(t, rt.AddHeader("X", []string{"1"}), ErrTemplateResolved)
	assert.ErrorIs(t, rt.AddQuery("x", []string{"1"}, metadata.Exploded), ErrTemplateResolved)
	assert.ErrorIs(t, rt.Target("https://x"), ErrTemplateResolved)
}

func TestRequestTemplate_QueryStringAppended(t *testing.T) {
	rt, err := NewRequestTemplate("GET", "/search", true, metadata.Exploded)
	require.NoError(t, err)
	require.NoError(t, rt.AddQuery("q", []string{"{query}"}, metadata.Exploded))
	require.NoError(t, rt.Target("https://example.com"))

	require.NoError(t, rt.Resolve(map[string]interface{}{"query": "golang"}))
	assert.Equal(t, "https://example.com/search?q=golang", rt.URL())
}

func TestRequestTemplate_Clone_IndependentOfOriginal(t *testing.T) {
	rt, err := NewRequestTemplate("GET", "/x/{id}", true, metadata.Exploded)
	require.NoError(t, err)
	require.NoError(t, rt.AddHeader("X-A", []string{"1"}))

	clone := rt.Clone()
	require.NoError(t, clone.AddHeader("X-B", []string{"2"}))

	assert.Len(t, rt.Headers(), 1)
	assert.Len(t, clone.Headers(), 2)
}

func TestRequestTemplate_HeaderCaseInsensitiveAfterResolve(t *testing.T) {
	rt, err := NewRequestTemplate("GET", "/x", true, metadata.Exploded)
	require.NoError(t, err)
	require.NoError(t, rt.AddHeader("Content-Type", []string{"application/json"}))
	require.NoError(t, rt.Target("https://x"))
	require.NoError(t, rt.Resolve(nil))

	assert.Equal(t, "application/json", rt.ResolvedHeaders().Get("content-type"))
}
