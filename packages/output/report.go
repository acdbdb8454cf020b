package output

import (
	"github.com/jcall-dev/jcall/packages/batch"
	"github.com/jcall-dev/jcall/packages/call"
	"github.com/jcall-dev/jcall/packages/schema"
)

// CallReport is the formatter-facing view of one executed call. The CLI
// builds it from a call.Result plus whatever captures, schema issues and
// history ID the run produced.
type CallReport struct {
	Name         string         `json:"name,omitempty"`
	Method       string         `json:"method"`
	URL          string         `json:"url"`
	Outcome      string         `json:"outcome"`
	StatusCode   int            `json:"statusCode,omitempty"`
	DurationMs   int64          `json:"durationMs"`
	Data         any            `json:"data,omitempty"`
	ErrorData    any            `json:"errorData,omitempty"`
	NetworkError string         `json:"networkError,omitempty"`
	Error        string         `json:"error,omitempty"`
	Captures     map[string]any `json:"captures,omitempty"`
	SchemaIssues []schema.Issue `json:"schemaIssues,omitempty"`
	HistoryID    string         `json:"historyId,omitempty"`
}

// Passed reports whether the call both succeeded and conformed to its
// schema, when one was configured.
func (r *CallReport) Passed() bool {
	return r.Outcome == "success" && len(r.SchemaIssues) == 0
}

// NewCallReport builds the common fields from a result.
func NewCallReport[T, E any](name, method, url string, res call.Result[T, E], durationMs int64) *CallReport {
	report := &CallReport{
		Name:         name,
		Method:       method,
		URL:          url,
		Outcome:      res.Outcome(),
		StatusCode:   res.StatusCode,
		DurationMs:   durationMs,
		NetworkError: string(res.NetworkError),
	}
	if res.Data != nil {
		report.Data = *res.Data
	}
	if res.ErrorData != nil {
		report.ErrorData = *res.ErrorData
	}
	if res.Err != nil {
		report.Error = res.Err.Error()
	}
	return report
}

// BatchReport pairs a batch summary with the call it repeated.
type BatchReport struct {
	Name    string         `json:"name"`
	Method  string         `json:"method"`
	URL     string         `json:"url"`
	Summary *batch.Summary `json:"summary"`
}
