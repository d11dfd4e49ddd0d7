package feign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofeign/gofeign/feign/metadata"
)

func TestQueryTemplate_ExplodedMultiValue(t *testing.T) {
	qt, err := NewQueryTemplate("tag", []string{"{tags}"}, metadata.Exploded)
	require.NoError(t, err)

	name, values, ok, err := qt.Expand(map[string]interface{}{"tags": []string{"go", "http"}}, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tag", name)
	assert.Equal(t, []string{"go", "http"}, values)
}

func TestQueryTemplate_CSVJoinsMultiValue(t *testing.T) {
	qt, err := NewQueryTemplate("tag", []string{"{tags}"}, metadata.CSV)
	require.NoError(t, err)

	_, values, ok, err := qt.Expand(map[string]interface{}{"tags": []string{"go", "http"}}, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"go,http"}, values)
}

func TestQueryTemplate_MissingVariable_ParamAbsent(t *testing.T) {
	qt, err := NewQueryTemplate("tag", []string{"{tags}"}, metadata.Exploded)
	require.NoError(t, err)

	_, _, ok, err := qt.Expand(map[string]interface{}{}, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueryTemplate_PureFlagStyle(t *testing.T) {
	qt, err := NewQueryTemplate("verbose", nil, metadata.Exploded)
	require.NoError(t, err)

	name, values, ok, err := qt.Expand(map[string]interface{}{}, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "verbose", name)
	assert.Nil(t, values)
}

func TestQueryTemplate_String_DiagnosticForm(t *testing.T) {
	qt, err := NewQueryTemplate("q", []string{"{query}"}, metadata.Exploded)
	require.NoError(t, err)
	assert.Equal(t, "q={query}", qt.String())
}
