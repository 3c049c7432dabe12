package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func requestCtx(uri string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.SetRequestURI(uri)
	return &ctx
}

func TestParseFilterSpecEmpty(t *testing.T) {
	spec := parseFilterSpec(requestCtx("/v1/users"))

	assert.Empty(t, spec.Search)
	assert.Nil(t, spec.MCP)
	assert.Nil(t, spec.Sessions.Min)
	assert.Nil(t, spec.Sessions.Max)
	assert.Empty(t, spec.Classifications)
}

func TestParseFilterSpecFull(t *testing.T) {
	spec := parseFilterSpec(requestCtx(
		"/v1/users?search=ada&mcp=true&rule_user=false" +
			"&sessions_min=10&sessions_max=500&score_min=30" +
			"&ai_percent_max=75.5&classifications=true,unmarked"))

	assert.Equal(t, "ada", spec.Search)
	require.NotNil(t, spec.MCP)
	assert.True(t, *spec.MCP)
	require.NotNil(t, spec.RuleUser)
	assert.False(t, *spec.RuleUser)
	require.NotNil(t, spec.Sessions.Min)
	assert.Equal(t, 10.0, *spec.Sessions.Min)
	require.NotNil(t, spec.Sessions.Max)
	assert.Equal(t, 500.0, *spec.Sessions.Max)
	require.NotNil(t, spec.Score.Min)
	assert.Equal(t, 30.0, *spec.Score.Min)
	require.NotNil(t, spec.AIPercent.Max)
	assert.Equal(t, 75.5, *spec.AIPercent.Max)
	assert.Equal(t, []string{"true", "unmarked"}, spec.Classifications)
}

func TestParseFilterSpecIgnoresBadValues(t *testing.T) {
	spec := parseFilterSpec(requestCtx(
		"/v1/users?mcp=maybe&sessions_min=abc&classifications=power,TRUE"))

	assert.Nil(t, spec.MCP)
	assert.Nil(t, spec.Sessions.Min)
	assert.Empty(t, spec.Classifications)
}

func TestParsePaging(t *testing.T) {
	limit, offset := parsePaging(requestCtx("/v1/users"), 50, 500)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 0, offset)

	limit, offset = parsePaging(requestCtx("/v1/users?limit=100&offset=200"), 50, 500)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 200, offset)

	limit, _ = parsePaging(requestCtx("/v1/users?limit=9999"), 50, 500)
	assert.Equal(t, 500, limit)

	limit, offset = parsePaging(requestCtx("/v1/users?limit=-1&offset=-5"), 50, 500)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 0, offset)
}
