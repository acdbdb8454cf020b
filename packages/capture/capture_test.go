package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcall-dev/jcall/packages/httpx"
)

func sampleResponse() *httpx.Response {
	return &httpx.Response{
		StatusCode: 201,
		Headers:    map[string]string{"Content-Type": "application/json", "X-Request-Id": "abc"},
		Body:       []byte(`{"id": 42, "user": {"name": "ada"}, "tags": ["a", "b"]}`),
		Duration:   150 * time.Millisecond,
	}
}

func TestExtract_Body(t *testing.T) {
	e := NewExtractor(sampleResponse())

	v, ok := e.Extract("body.id")
	require.True(t, ok)
	assert.EqualValues(t, 42, v)

	v, ok = e.Extract("body.user.name")
	require.True(t, ok)
	assert.Equal(t, "ada", v)

	v, ok = e.Extract("body.tags.1")
	require.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = e.Extract("body.missing")
	assert.False(t, ok)
}

func TestExtract_WholeBody(t *testing.T) {
	e := NewExtractor(sampleResponse())

	v, ok := e.Extract("body")
	require.True(t, ok)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, m, "id")
}

func TestExtract_NonJSONBody(t *testing.T) {
	e := NewExtractor(&httpx.Response{StatusCode: 200, Body: []byte("plain")})

	v, ok := e.Extract("body")
	require.True(t, ok)
	assert.Equal(t, "plain", v)

	_, ok = e.Extract("body.id")
	assert.False(t, ok)
}

func TestExtract_HeaderStatusDuration(t *testing.T) {
	e := NewExtractor(sampleResponse())

	v, ok := e.Extract("header.X-Request-Id")
	require.True(t, ok)
	assert.Equal(t, "abc", v)

	_, ok = e.Extract("header.Missing")
	assert.False(t, ok)

	v, ok = e.Extract("status")
	require.True(t, ok)
	assert.Equal(t, 201, v)

	v, ok = e.Extract("duration")
	require.True(t, ok)
	assert.EqualValues(t, 150, v)
}

func TestExtract_UnknownSource(t *testing.T) {
	e := NewExtractor(sampleResponse())

	_, ok := e.Extract("cookie.session")
	assert.False(t, ok)
}

func TestExtractAll(t *testing.T) {
	results := ExtractAll(sampleResponse(), map[string]string{
		"id":      "body.id",
		"reqId":   "header.X-Request-Id",
		"status":  "status",
		"missing": "body.nope",
	})

	assert.Len(t, results, 3)
	assert.EqualValues(t, 42, results["id"])
	assert.Equal(t, "abc", results["reqId"])
	assert.Equal(t, 201, results["status"])
	assert.NotContains(t, results, "missing")
}
