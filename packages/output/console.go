package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// formatValue formats a value for display, truncating large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		b, err := json.Marshal(val)
		if err == nil && len(b) <= maxLen {
			return string(b)
		}
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatCall(report *CallReport) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	symbol := green("✓")
	if !report.Passed() {
		symbol = red("✗")
	}

	label := report.Name
	if label == "" {
		label = report.URL
	}

	fmt.Fprintf(f.writer, "%s %s %s", symbol, report.Method, label)
	if report.StatusCode != 0 {
		fmt.Fprintf(f.writer, " %d", report.StatusCode)
	}
	fmt.Fprintf(f.writer, " %s\n", cyan(fmt.Sprintf("(%dms)", report.DurationMs)))

	switch report.Outcome {
	case "timeout":
		fmt.Fprintf(f.writer, "  %s the call timed out\n", yellow("timeout:"))
	case "network_error":
		fmt.Fprintf(f.writer, "  %s %s\n", red("network error:"), report.Error)
	case "app_error":
		if report.ErrorData != nil {
			fmt.Fprintf(f.writer, "  %s %s\n", red("error data:"), formatValue(report.ErrorData, 200))
		} else if report.Error != "" {
			fmt.Fprintf(f.writer, "  %s %s\n", red("error:"), report.Error)
		}
	}

	if report.Outcome == "success" && report.Error != "" {
		fmt.Fprintf(f.writer, "  %s %s\n", red("error:"), report.Error)
	}

	for _, issue := range report.SchemaIssues {
		fmt.Fprintf(f.writer, "  %s %s\n", red("schema:"), issue)
	}

	if len(report.Captures) > 0 {
		fmt.Fprintf(f.writer, "  captures:\n")
		for name, value := range report.Captures {
			fmt.Fprintf(f.writer, "    %s = %s\n", name, formatValue(value, 100))
		}
	}

	if f.verbose && report.Data != nil {
		fmt.Fprintf(f.writer, "  data: %s\n", formatValue(report.Data, 500))
	}

	if report.HistoryID != "" {
		fmt.Fprintf(f.writer, "  saved: %s\n", report.HistoryID)
	}
}

func (f *ConsoleFormatter) FormatBatch(report *BatchReport) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	s := report.Summary

	fmt.Fprintf(f.writer, "\n%s\n", bold(fmt.Sprintf("Batch: %s %s %s", report.Name, report.Method, report.URL)))
	fmt.Fprintf(f.writer, "  iterations: %d in %dms (%.1f/s)\n", s.Total, s.Duration.Milliseconds(), s.RPS)

	fmt.Fprintf(f.writer, "  outcomes:   %s", green(fmt.Sprintf("%d success", s.Success)))
	if s.AppErrors > 0 {
		fmt.Fprintf(f.writer, ", %s", red(fmt.Sprintf("%d app errors", s.AppErrors)))
	}
	if s.Timeouts > 0 {
		fmt.Fprintf(f.writer, ", %s", red(fmt.Sprintf("%d timeouts", s.Timeouts)))
	}
	if s.NetworkErrors > 0 {
		fmt.Fprintf(f.writer, ", %s", red(fmt.Sprintf("%d network errors", s.NetworkErrors)))
	}
	fmt.Fprintf(f.writer, "\n")

	fmt.Fprintf(f.writer, "  latency:    p50=%dms p95=%dms p99=%dms max=%dms\n",
		s.P50.Milliseconds(), s.P95.Milliseconds(), s.P99.Milliseconds(), s.Max.Milliseconds())
	fmt.Fprintf(f.writer, "  error rate: %.2f%%\n\n", s.ErrorRate()*100)
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}
