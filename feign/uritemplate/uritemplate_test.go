package uritemplate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_LiteralOnly(t *testing.T) {
	tpl, err := Parse("/repos/contributors")
	require.NoError(t, err)
	assert.True(t, tpl.IsLiteral())
	assert.Empty(t, tpl.Names())
}

func TestParse_SimpleExpression(t *testing.T) {
	tpl, err := Parse("/repos/{owner}/{repo}/contributors")
	require.NoError(t, err)
	assert.Equal(t, []string{"owner", "repo"}, tpl.Names())
}

func TestParse_NestedBracesAreLiteralContentOfOuterExpression(t *testing.T) {
	// Only the outermost braces delimit the expression; since "{a{b}}" does
	// not match the expression grammar it becomes a literal verbatim.
	tpl, err := Parse("/x/{a{b}}/y")
	require.NoError(t, err)
	assert.Empty(t, tpl.Names())
	out, err := tpl.Expand(nil, PathSegment, AllowUnresolved, "")
	require.NoError(t, err)
	assert.Equal(t, "/x/{a{b}}/y", out)
}

func TestParse_ConstraintExpression(t *testing.T) {
	tpl, err := Parse("/widgets/{id:[0-9]+}")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, tpl.Names())

	out, err := tpl.Expand(map[string]interface{}{"id": "42"}, PathSegment, Required, "")
	require.NoError(t, err)
	assert.Equal(t, "/widgets/42", out)

	_, err = tpl.Expand(map[string]interface{}{"id": "abc"}, PathSegment, Required, "")
	assert.Error(t, err)
}

func TestExpand_BasicGitHubContributors(t *testing.T) {
	tpl := MustParse("/repos/{owner}/{repo}/contributors")
	out, err := tpl.Expand(map[string]interface{}{
		"owner": "netflix",
		"repo":  "feign",
	}, PathSegment, AllowUnresolved, "")
	require.NoError(t, err)
	assert.Equal(t, "/repos/netflix/feign/contributors", out)
}

func TestExpand_MissingVariable_AllowUnresolvedKeepsLiteral(t *testing.T) {
	tpl := MustParse("/x/{missing}/y")
	out, err := tpl.Expand(map[string]interface{}{}, PathSegment, AllowUnresolved, "")
	require.NoError(t, err)
	assert.Equal(t, "/x/{missing}/y", out)
}

func TestExpand_MissingVariable_RequiredReturnsUndef(t *testing.T) {
	tpl := MustParse("{q}")
	out, err := tpl.Expand(map[string]interface{}{}, Query, Required, "")
	require.NoError(t, err)
	assert.Equal(t, Undef, out)
}

func TestExpand_IterableJoinsWithSemicolonDelimiter(t *testing.T) {
	tpl := MustParse("{tags}")
	out, err := tpl.Expand(map[string]interface{}{"tags": []string{"a", "b"}}, Query, Required, "")
	require.NoError(t, err)
	assert.Equal(t, "a;b", out)
}

func TestExpand_PathSegmentLeavesMoreCharsUnescaped(t *testing.T) {
	tpl := MustParse("{name}")
	out, err := tpl.Expand(map[string]interface{}{"name": "a:b@c,d"}, PathSegment, Required, "")
	require.NoError(t, err)
	assert.Equal(t, "a:b@c,d", out)
}

func TestExpand_QueryEscapesReservedChars(t *testing.T) {
	tpl := MustParse("{name}")
	out, err := tpl.Expand(map[string]interface{}{"name": "a:b@c,d"}, Query, Required, "")
	require.NoError(t, err)
	assert.Equal(t, "a%3Ab%40c%2Cd", out)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	for _, v := range []string{"hello world", "a&b=c", "100%", "日本語", ""} {
		enc := encode(v, Query)
		dec, err := Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, v, dec)
	}
}

func TestExpand_UnsupportedCharset(t *testing.T) {
	tpl := MustParse("{x}")
	_, err := tpl.Expand(map[string]interface{}{"x": "y"}, Query, Required, "latin1")
	assert.Error(t, err)
}
