// Package capture extracts values from a finished call for display and
// history records. Sources are written as path strings: "body.<gjson path>",
// "header.<name>", "status" or "duration".
package capture

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jcall-dev/jcall/packages/httpx"
)

type Extractor struct {
	response *httpx.Response
	bodyJSON gjson.Result
	parsed   bool
}

func NewExtractor(resp *httpx.Response) *Extractor {
	e := &Extractor{
		response: resp,
	}
	if gjson.ValidBytes(resp.Body) {
		e.bodyJSON = gjson.ParseBytes(resp.Body)
		e.parsed = true
	}
	return e
}

// Extract resolves one source path. The second return reports whether the
// path matched anything.
func (e *Extractor) Extract(source string) (any, bool) {
	switch {
	case source == "status":
		return e.response.StatusCode, true
	case source == "duration":
		return e.response.DurationMs(), true
	case source == "body":
		return e.extractFromBody("")
	case strings.HasPrefix(source, "body."):
		return e.extractFromBody(strings.TrimPrefix(source, "body."))
	case strings.HasPrefix(source, "header."):
		return e.extractFromHeader(strings.TrimPrefix(source, "header."))
	default:
		return nil, false
	}
}

func (e *Extractor) extractFromBody(path string) (any, bool) {
	if !e.parsed {
		if path == "" {
			return e.response.BodyString(), true
		}
		return nil, false
	}

	if path == "" {
		return e.bodyJSON.Value(), true
	}

	result := e.bodyJSON.Get(path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

func (e *Extractor) extractFromHeader(name string) (any, bool) {
	value := e.response.Header(name)
	if value == "" {
		return nil, false
	}
	return value, true
}

// ExtractAll resolves a name-to-source map against one response. Sources
// that match nothing are simply absent from the result.
func ExtractAll(resp *httpx.Response, sources map[string]string) map[string]any {
	extractor := NewExtractor(resp)
	results := make(map[string]any)

	for name, source := range sources {
		if value, ok := extractor.Extract(source); ok {
			results[name] = value
		}
	}

	return results
}
