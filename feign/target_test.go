package feign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHardCodedTarget_AppliesBaseURL(t *testing.T) {
	target := NewHardCodedTarget("github", "https://api.github.com")
	rt, err := NewRequestTemplate("GET", "/repos/{owner}", true, 0)
	require.NoError(t, err)

	require.NoError(t, target.Apply(rt))
	require.NoError(t, rt.Resolve(map[string]interface{}{"owner": "golang"}))
	assert.Equal(t, "https://api.github.com/repos/golang", rt.URL())
	assert.Equal(t, "github", target.Name())
}

func TestEmptyTarget_LeavesAbsoluteURITemplateAlone(t *testing.T) {
	target := NewEmptyTarget("none")
	rt, err := NewRequestTemplate("GET", "https://api.github.com/repos/{owner}", true, 0)
	require.NoError(t, err)

	require.NoError(t, target.Apply(rt))
	require.NoError(t, rt.Resolve(map[string]interface{}{"owner": "golang"}))
	assert.Equal(t, "https://api.github.com/repos/golang", rt.URL())
}

func TestIsAbsoluteURI(t *testing.T) {
	assert.True(t, IsAbsoluteURI("https://api.github.com/x"))
	assert.False(t, IsAbsoluteURI("/repos/{owner}"))
}
