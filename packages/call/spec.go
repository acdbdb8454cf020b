package call

import (
	"net/http"

	"github.com/jcall-dev/jcall/packages/httpx"
)

const (
	// DefaultTimeoutMs is applied when a Spec carries no timeout.
	DefaultTimeoutMs = 10000
	// DefaultValidStatusStart and DefaultValidStatusEnd bound the default
	// valid status range.
	DefaultValidStatusStart = 200
	DefaultValidStatusEnd   = 299
)

// Spec describes one call. The zero value of a field means "not set": it is
// replaced by the default during Execute, while an explicitly set value wins.
// Pointer fields exist so that an explicit false or 0 survives the merge.
type Spec struct {
	// URL is required.
	URL string

	// Method defaults to GET.
	Method string

	// Body is serialized to JSON and attached only for POST, PATCH and
	// DELETE. A body on GET or PUT is silently dropped; PUT is excluded on
	// purpose to keep the historical contract.
	Body any

	// ExtraHeaders are appended in order after the JSON content headers, so
	// they may override Content-Type or Accept.
	ExtraHeaders httpx.Headers

	// JSONRequest controls the Content-Type: application/json header.
	// Defaults to true.
	JSONRequest *bool

	// JSONResponse controls the Accept header and whether the response body
	// is decoded as JSON. Defaults to true.
	JSONResponse *bool

	// ValidStatusCodes, when set (even empty), decides validity by
	// membership and the range bounds are ignored entirely.
	ValidStatusCodes []int

	// ValidStatusCodeStart and ValidStatusCodeEnd bound the valid range,
	// defaulting to 200 and 299. An explicit zero survives the merge and is
	// treated as absent by the validator, making every status invalid.
	ValidStatusCodeStart *int
	ValidStatusCodeEnd   *int

	// TimeoutMs defaults to 10000.
	TimeoutMs int
}

// withDefaults returns a copy of s with absent fields filled in. Field-wise
// merge: a set field always wins over the default, nothing is ever deleted.
func withDefaults(s Spec) Spec {
	if s.Method == "" {
		s.Method = http.MethodGet
	}
	if s.JSONRequest == nil {
		s.JSONRequest = boolPtr(true)
	}
	if s.JSONResponse == nil {
		s.JSONResponse = boolPtr(true)
	}
	if s.ValidStatusCodeStart == nil {
		s.ValidStatusCodeStart = intPtr(DefaultValidStatusStart)
	}
	if s.ValidStatusCodeEnd == nil {
		s.ValidStatusCodeEnd = intPtr(DefaultValidStatusEnd)
	}
	if s.TimeoutMs <= 0 {
		s.TimeoutMs = DefaultTimeoutMs
	}
	return s
}

// headers builds the outgoing header list: conditional JSON headers first,
// then the extra headers in their given order.
func (s Spec) headers() httpx.Headers {
	var h httpx.Headers
	if s.JSONRequest != nil && *s.JSONRequest {
		h = append(h, httpx.Header{Key: "Content-Type", Value: "application/json"})
	}
	if s.JSONResponse != nil && *s.JSONResponse {
		h = append(h, httpx.Header{Key: "Accept", Value: "application/json"})
	}
	return append(h, s.ExtraHeaders...)
}

// attachesBody reports whether the method carries a request body.
func attachesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

// BoolPtr and IntPtr are exported for callers building Specs field by field.
func BoolPtr(b bool) *bool { return &b }

func IntPtr(i int) *int { return &i }
