package callfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCallfile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "jcall.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeCallfile(t, `
calls:
  - name: create-user
    url: https://api.example.com/users
    method: POST
    body:
      name: ada
    headers:
      - key: X-Team
        value: core
    validStatusCodes: [201]
    timeoutMs: 5000
    capture:
      id: body.id
  - name: get-user
    url: https://api.example.com/users/1
mock:
  - method: POST
    path: /users
    status: 201
    body: '{"id": 1}'
`)

	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f.Calls, 2)
	require.Len(t, f.Mock, 1)

	c := f.Find("create-user")
	require.NotNil(t, c)
	assert.Equal(t, "POST", c.Method)
	assert.Equal(t, []int{201}, c.ValidStatusCodes)
	assert.Equal(t, "body.id", c.Capture["id"])

	assert.Nil(t, f.Find("missing"))
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("JCALL_TEST_HOST", "api.example.com")
	t.Setenv("JCALL_TEST_TOKEN", "secret")

	path := writeCallfile(t, `
calls:
  - name: ping
    url: https://${JCALL_TEST_HOST}/ping
    headers:
      - key: Authorization
        value: Bearer ${JCALL_TEST_TOKEN}
    body:
      host: ${JCALL_TEST_HOST}
`)

	f, err := Load(path)
	require.NoError(t, err)

	c := f.Find("ping")
	require.NotNil(t, c)
	assert.Equal(t, "https://api.example.com/ping", c.URL)
	assert.Equal(t, "Bearer secret", c.Headers[0].Value)

	body, ok := c.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "api.example.com", body["host"])
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "missing url",
			content: "calls:\n  - name: a\n",
			errMsg:  "url is required",
		},
		{
			name:    "missing name",
			content: "calls:\n  - url: https://x/y\n",
			errMsg:  "name is required",
		},
		{
			name:    "duplicate name",
			content: "calls:\n  - name: a\n    url: https://x\n  - name: a\n    url: https://y\n",
			errMsg:  "duplicate call name",
		},
		{
			name:    "unknown method",
			content: "calls:\n  - name: a\n    url: https://x\n    method: FETCH\n",
			errMsg:  "unknown method",
		},
		{
			name:    "bad batch duration",
			content: "calls:\n  - name: a\n    url: https://x\n    batch:\n      duration: soon\n",
			errMsg:  "invalid batch duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeCallfile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCall_Spec(t *testing.T) {
	f := &File{Calls: []*Call{{
		Name:   "a",
		URL:    "https://x/y",
		Method: "post",
		Headers: []HeaderDef{
			{Key: "X-One", Value: "1"},
			{Key: "X-Two", Value: "2"},
		},
		TimeoutMs: 2500,
	}}}
	require.NoError(t, f.Validate())

	spec := f.Calls[0].Spec()
	assert.Equal(t, "POST", spec.Method)
	assert.Equal(t, 2500, spec.TimeoutMs)
	require.Len(t, spec.ExtraHeaders, 2)
	assert.Equal(t, "X-One", spec.ExtraHeaders[0].Key)
	// Absent toggles stay nil so the executor applies its own defaults.
	assert.Nil(t, spec.JSONRequest)
	assert.Nil(t, spec.ValidStatusCodeStart)
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	content := "calls:\n  - name: a\n    url: https://x/y\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".jcall.yaml"), []byte(content), 0644))

	f, err := FindAndLoad(dir)
	require.NoError(t, err)
	assert.Len(t, f.Calls, 1)

	_, err = FindAndLoad(t.TempDir())
	assert.Error(t, err)
}
