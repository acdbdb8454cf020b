package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jcall-dev/jcall/packages/call"
	"github.com/jcall-dev/jcall/packages/callfile"
	"github.com/jcall-dev/jcall/packages/capture"
	"github.com/jcall-dev/jcall/packages/history"
	"github.com/jcall-dev/jcall/packages/httpx"
	"github.com/jcall-dev/jcall/packages/output"
	"github.com/jcall-dev/jcall/packages/schema"
)

var sendCmd = &cobra.Command{
	Use:   "send [call-name]",
	Short: "Send one call and print its result",
	Long: `Send one call, either defined by name in a callfile or described
entirely by flags. Every outcome resolves into one result: success data,
application error data, or a network error.

Examples:
  jcall send --url https://api.example.com/users/1
  jcall send -X POST --url https://api.example.com/users -d '{"name":"ada"}'
  jcall send create-user
  jcall send create-user --capture id=body.id --save
  jcall send create-user --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: sendCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	sendFileFlag    string
	sendURLFlag     string
	sendMethodFlag  string
	sendBodyFlag    string
	sendHeaderFlags []string
	sendTimeoutFlag int

	sendValidCodesFlag []int
	sendValidStartFlag int
	sendValidEndFlag   int

	sendNoJSONRequestFlag  bool
	sendNoJSONResponseFlag bool

	sendCaptureFlags []string
	sendSchemaFlag   string

	sendOutputFlag  string
	sendNoColorFlag bool
	sendVerboseFlag bool
	sendSaveFlag    bool
	sendDBFlag      string
	sendWatchFlag   bool

	sendProxyFlag       string
	sendInsecureFlag    bool
	sendNoRedirectsFlag bool
)

func init() {
	sendCmd.Flags().StringVarP(&sendFileFlag, "file", "f", getEnvString("JCALL_FILE", ""), "Callfile path (env: JCALL_FILE)")
	sendCmd.Flags().StringVar(&sendURLFlag, "url", "", "Request URL")
	sendCmd.Flags().StringVarP(&sendMethodFlag, "method", "X", "", "Request method (default GET)")
	sendCmd.Flags().StringVarP(&sendBodyFlag, "body", "d", "", "Request body (JSON or plain string)")
	sendCmd.Flags().StringArrayVarP(&sendHeaderFlags, "header", "H", nil, "Extra header \"Key: Value\" (repeatable, ordered)")
	sendCmd.Flags().IntVar(&sendTimeoutFlag, "timeout", 0, "Timeout in milliseconds (default 10000)")

	sendCmd.Flags().IntSliceVar(&sendValidCodesFlag, "valid-codes", nil, "Explicit valid status codes (overrides the range)")
	sendCmd.Flags().IntVar(&sendValidStartFlag, "valid-start", 0, "Valid status range start (default 200)")
	sendCmd.Flags().IntVar(&sendValidEndFlag, "valid-end", 0, "Valid status range end (default 299)")

	sendCmd.Flags().BoolVar(&sendNoJSONRequestFlag, "no-json-request", false, "Skip the Content-Type: application/json header")
	sendCmd.Flags().BoolVar(&sendNoJSONResponseFlag, "no-json-response", false, "Skip the Accept header and response decoding")

	sendCmd.Flags().StringArrayVar(&sendCaptureFlags, "capture", nil, "Capture \"name=source\" from the response (repeatable)")
	sendCmd.Flags().StringVar(&sendSchemaFlag, "schema", "", "JSON Schema file to validate the success payload against")

	sendCmd.Flags().StringVarP(&sendOutputFlag, "output", "o", getEnvString("JCALL_OUTPUT", "console"), "Output format: console, json (env: JCALL_OUTPUT)")
	sendCmd.Flags().BoolVar(&sendNoColorFlag, "no-color", getEnvBool("JCALL_NO_COLOR", false), "Disable colored output (env: JCALL_NO_COLOR)")
	sendCmd.Flags().BoolVarP(&sendVerboseFlag, "verbose", "v", false, "Print the response data")
	sendCmd.Flags().BoolVar(&sendSaveFlag, "save", getEnvBool("JCALL_SAVE", false), "Record the call in history (env: JCALL_SAVE)")
	sendCmd.Flags().StringVar(&sendDBFlag, "db", getEnvString("JCALL_DB", ""), "History database path (env: JCALL_DB)")
	sendCmd.Flags().BoolVarP(&sendWatchFlag, "watch", "w", false, "Watch the callfile and re-send on change")

	sendCmd.Flags().StringVar(&sendProxyFlag, "proxy", getEnvString("JCALL_PROXY", ""), "Proxy URL (env: JCALL_PROXY)")
	sendCmd.Flags().BoolVarP(&sendInsecureFlag, "insecure", "k", getEnvBool("JCALL_INSECURE", false), "Disable SSL certificate validation (env: JCALL_INSECURE)")
	sendCmd.Flags().BoolVar(&sendNoRedirectsFlag, "no-follow-redirects", false, "Do not follow redirects")
}

func sendCommand(cmd *cobra.Command, args []string) error {
	formatter := newFormatter(sendOutputFlag, sendVerboseFlag, sendNoColorFlag)

	name := ""
	if len(args) == 1 {
		name = args[0]
	}

	sendOnce := func() (bool, error) {
		spec, meta, err := resolveSendSpec(cmd, name)
		if err != nil {
			return false, err
		}
		report := executeCall(cmd.Context(), spec, meta)
		formatter.FormatCall(report)
		return report.Passed(), nil
	}

	passed, err := sendOnce()
	if err != nil {
		return err
	}

	if !sendWatchFlag {
		if !passed {
			os.Exit(1)
		}
		return nil
	}

	if name == "" {
		return fmt.Errorf("--watch needs a named call from a callfile")
	}

	path, err := resolveCallfilePath(sendFileFlag)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes... (press Ctrl+C to stop)\n\n", path)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) && filepath.Clean(event.Name) == filepath.Clean(path) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
					fmt.Fprintf(cmd.OutOrStdout(), "\nCallfile changed, re-sending...\n\n")
					if _, err := sendOnce(); err != nil {
						formatter.FormatError(err)
					}
				})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			formatter.FormatError(err)
		case <-sigCh:
			return nil
		}
	}
}

// callMeta carries everything around the spec itself: display name,
// captures, schema and history settings.
type callMeta struct {
	name     string
	captures map[string]string
	schema   string
}

// resolveSendSpec builds the spec from the named callfile entry, then lets
// explicitly set flags override individual fields.
func resolveSendSpec(cmd *cobra.Command, name string) (call.Spec, callMeta, error) {
	var spec call.Spec
	meta := callMeta{name: name}

	if name != "" {
		f, err := loadCallfile(sendFileFlag)
		if err != nil {
			return spec, meta, err
		}
		c := f.Find(name)
		if c == nil {
			return spec, meta, fmt.Errorf("no call named %q in callfile", name)
		}
		spec = c.Spec()
		meta.captures = c.Capture
		meta.schema = c.Schema
	}

	if sendURLFlag != "" {
		spec.URL = sendURLFlag
	}
	if sendMethodFlag != "" {
		spec.Method = sendMethodFlag
	}
	if sendBodyFlag != "" {
		spec.Body = parseBodyFlag(sendBodyFlag)
	}
	if sendTimeoutFlag > 0 {
		spec.TimeoutMs = sendTimeoutFlag
	}
	if len(sendValidCodesFlag) > 0 {
		spec.ValidStatusCodes = sendValidCodesFlag
	}
	// Changed, not non-zero: an explicit --valid-start 0 must survive, it
	// makes every status invalid by design.
	if cmd.Flags().Changed("valid-start") {
		spec.ValidStatusCodeStart = call.IntPtr(sendValidStartFlag)
	}
	if cmd.Flags().Changed("valid-end") {
		spec.ValidStatusCodeEnd = call.IntPtr(sendValidEndFlag)
	}
	if sendNoJSONRequestFlag {
		spec.JSONRequest = call.BoolPtr(false)
	}
	if sendNoJSONResponseFlag {
		spec.JSONResponse = call.BoolPtr(false)
	}

	headers, err := parseHeaderFlags(sendHeaderFlags)
	if err != nil {
		return spec, meta, err
	}
	spec.ExtraHeaders = append(spec.ExtraHeaders, headers...)

	flagCaptures, err := parseCaptureFlags(sendCaptureFlags)
	if err != nil {
		return spec, meta, err
	}
	if flagCaptures != nil {
		meta.captures = flagCaptures
	}
	if sendSchemaFlag != "" {
		meta.schema = sendSchemaFlag
	}

	if spec.URL == "" {
		return spec, meta, fmt.Errorf("a URL is required: pass --url or a call name")
	}

	return spec, meta, nil
}

func newTransport() *httpx.Client {
	opts := []httpx.ClientOption{
		httpx.WithFollowRedirects(!sendNoRedirectsFlag),
		httpx.WithValidateSSL(!sendInsecureFlag),
	}
	if sendProxyFlag != "" {
		opts = append(opts, httpx.WithProxy(sendProxyFlag))
	}
	return httpx.NewClient(opts...)
}

// executeCall runs one call and assembles the full report: result, captures,
// schema issues and the history record when saving is on.
func executeCall(ctx context.Context, spec call.Spec, meta callMeta) *output.CallReport {
	rt := newRecordingTransport(newTransport())

	method := spec.Method
	if method == "" {
		method = "GET"
	}

	start := time.Now()
	res := call.Execute[any, any](ctx, rt, spec)
	durationMs := time.Since(start).Milliseconds()

	report := output.NewCallReport(meta.name, method, spec.URL, res, durationMs)

	if resp := rt.Last(); resp != nil && len(meta.captures) > 0 {
		report.Captures = capture.ExtractAll(resp, meta.captures)
	}

	if meta.schema != "" && res.IsSuccess() {
		issues, err := schema.ValidateFile(res.RawBody, meta.schema)
		if err != nil {
			report.Error = err.Error()
		} else {
			report.SchemaIssues = issues
		}
	}

	if sendSaveFlag {
		id, err := saveToHistory(meta.name, method, spec.URL, res, durationMs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to save history: %v\n", err)
		} else {
			report.HistoryID = id
		}
	}

	return report
}

func saveToHistory[T, E any](name, method, url string, res call.Result[T, E], durationMs int64) (string, error) {
	path := sendDBFlag
	if path == "" {
		var err error
		path, err = history.DefaultPath()
		if err != nil {
			return "", err
		}
	}

	store, err := history.Open(path)
	if err != nil {
		return "", err
	}
	defer store.Close()

	rec := &history.Record{
		Name:         name,
		Method:       method,
		URL:          url,
		Outcome:      res.Outcome(),
		StatusCode:   res.StatusCode,
		DurationMs:   durationMs,
		ResponseBody: string(res.RawBody),
	}
	if err := store.Add(rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// resolveCallfilePath finds the callfile that loadCallfile would use.
func resolveCallfilePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	for _, name := range callfile.Filenames {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no callfile found in the working directory")
}
