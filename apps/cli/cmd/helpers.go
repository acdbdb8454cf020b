package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/jcall-dev/jcall/packages/call"
	"github.com/jcall-dev/jcall/packages/callfile"
	"github.com/jcall-dev/jcall/packages/httpx"
	"github.com/jcall-dev/jcall/packages/output"
)

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// Formatter is implemented by every output format.
type Formatter interface {
	FormatCall(report *output.CallReport)
	FormatBatch(report *output.BatchReport)
	FormatError(err error)
}

func newFormatter(format string, verbose, noColor bool) Formatter {
	switch strings.ToLower(format) {
	case "json":
		return output.NewJSONFormatter()
	default:
		return output.NewConsoleFormatter(
			output.WithVerbose(verbose),
			output.WithNoColor(noColor),
		)
	}
}

// loadCallfile loads the explicit path, or searches the working directory.
func loadCallfile(path string) (*callfile.File, error) {
	if path != "" {
		return callfile.Load(path)
	}
	return callfile.FindAndLoad(".")
}

// parseHeaderFlags turns repeated "Key: Value" flags into ordered headers.
func parseHeaderFlags(values []string) (httpx.Headers, error) {
	headers := make(httpx.Headers, 0, len(values))
	for _, v := range values {
		key, value, found := strings.Cut(v, ":")
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid header %q (want \"Key: Value\")", v)
		}
		headers = append(headers, httpx.Header{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}
	return headers, nil
}

// parseCaptureFlags turns repeated "name=source" flags into a capture map.
func parseCaptureFlags(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	captures := make(map[string]string, len(values))
	for _, v := range values {
		name, source, found := strings.Cut(v, "=")
		if !found || name == "" || source == "" {
			return nil, fmt.Errorf("invalid capture %q (want \"name=source\")", v)
		}
		captures[name] = source
	}
	return captures, nil
}

// parseBodyFlag keeps valid JSON as a structured value and falls back to a
// plain string, which then serializes as a JSON string.
func parseBodyFlag(body string) any {
	if body == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(body), &v); err == nil {
		return v
	}
	return body
}

// recordingTransport stashes the last response so captures can see headers
// and duration after the executor has classified the result.
type recordingTransport struct {
	inner call.Transport

	mu   sync.Mutex
	last *httpx.Response
}

func newRecordingTransport(inner call.Transport) *recordingTransport {
	return &recordingTransport{inner: inner}
}

func (r *recordingTransport) Do(ctx context.Context, method, url string, headers httpx.Headers, body []byte) (*httpx.Response, error) {
	resp, err := r.inner.Do(ctx, method, url, headers, body)
	if err == nil {
		r.mu.Lock()
		r.last = resp
		r.mu.Unlock()
	}
	return resp, err
}

func (r *recordingTransport) Last() *httpx.Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
