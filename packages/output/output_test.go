package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcall-dev/jcall/packages/batch"
	"github.com/jcall-dev/jcall/packages/call"
	"github.com/jcall-dev/jcall/packages/schema"
)

func successReport() *CallReport {
	data := map[string]any{"id": float64(42)}
	res := call.Result[map[string]any, map[string]any]{Data: &data, StatusCode: 201}
	report := NewCallReport("create-user", "POST", "https://x/y", res, 12)
	report.Captures = map[string]any{"id": float64(42)}
	return report
}

func TestNewCallReport(t *testing.T) {
	report := successReport()

	assert.Equal(t, "success", report.Outcome)
	assert.Equal(t, 201, report.StatusCode)
	assert.NotNil(t, report.Data)
	assert.Nil(t, report.ErrorData)
	assert.True(t, report.Passed())

	failing := call.Result[map[string]any, map[string]any]{
		NetworkError: call.NetworkTimeout,
	}
	report = NewCallReport("a", "GET", "https://x", failing, 5000)
	assert.Equal(t, "timeout", report.Outcome)
	assert.False(t, report.Passed())
}

func TestCallReport_SchemaFailsPass(t *testing.T) {
	report := successReport()
	report.SchemaIssues = []schema.Issue{{Field: "id", Description: "Invalid type"}}
	assert.False(t, report.Passed())
}

func TestConsoleFormatter_Success(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatCall(successReport())

	out := buf.String()
	assert.Contains(t, out, "✓ POST create-user 201 (12ms)")
	assert.Contains(t, out, "id = 42")
}

func TestConsoleFormatter_Failures(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	errData := map[string]any{"message": "nope"}
	res := call.Result[map[string]any, map[string]any]{ErrorData: &errData, StatusCode: 422}
	f.FormatCall(NewCallReport("", "POST", "https://x/y", res, 8))

	out := buf.String()
	assert.Contains(t, out, "✗ POST https://x/y 422")
	assert.Contains(t, out, "error data:")
	assert.Contains(t, out, "nope")

	buf.Reset()
	timeoutRes := call.Result[map[string]any, map[string]any]{NetworkError: call.NetworkTimeout}
	f.FormatCall(NewCallReport("slow", "GET", "https://x", timeoutRes, 10000))
	assert.Contains(t, buf.String(), "timeout:")
}

func TestConsoleFormatter_FormatError(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatError(errors.New("boom"))

	assert.Contains(t, buf.String(), "Error: boom")
}

func TestConsoleFormatter_Batch(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatBatch(&BatchReport{
		Name:   "ping",
		Method: "GET",
		URL:    "https://x/ping",
		Summary: &batch.Summary{
			Total:    100,
			Success:  98,
			Timeouts: 2,
			Duration: 2 * time.Second,
			RPS:      50,
			P50:      10 * time.Millisecond,
			P95:      40 * time.Millisecond,
			P99:      80 * time.Millisecond,
			Max:      120 * time.Millisecond,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Batch: ping GET https://x/ping")
	assert.Contains(t, out, "100 in 2000ms")
	assert.Contains(t, out, "98 success")
	assert.Contains(t, out, "2 timeouts")
	assert.Contains(t, out, "p95=40ms")
	assert.Contains(t, out, "error rate: 2.00%")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))

	f.FormatCall(successReport())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "success", decoded["outcome"])
	assert.Equal(t, float64(201), decoded["statusCode"])
	assert.NotContains(t, decoded, "errorData")
}
