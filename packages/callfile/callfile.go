// Package callfile loads named call definitions from a YAML file.
//
// A callfile holds the calls a user sends by name, plus optional mock routes
// served by the stub server. Environment references written as ${VAR} are
// expanded in URLs, header values and string body fields at load time.
package callfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jcall-dev/jcall/packages/call"
	"github.com/jcall-dev/jcall/packages/httpx"
)

// Filenames contains the callfile names searched in order when no explicit
// path is given.
var Filenames = []string{
	"jcall.yaml",
	".jcall.yaml",
	"jcall.yml",
}

// File is a parsed callfile.
type File struct {
	Calls []*Call      `yaml:"calls"`
	Mock  []*MockRoute `yaml:"mock,omitempty"`
}

// HeaderDef is one ordered header pair as written in YAML.
type HeaderDef struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Call is one named call definition. Pointer fields distinguish "absent"
// from an explicit false or zero, so the executor's merge-with-defaults
// semantics carry through unchanged.
type Call struct {
	Name                 string            `yaml:"name"`
	URL                  string            `yaml:"url"`
	Method               string            `yaml:"method,omitempty"`
	Body                 any               `yaml:"body,omitempty"`
	Headers              []HeaderDef       `yaml:"headers,omitempty"`
	JSONRequest          *bool             `yaml:"jsonRequest,omitempty"`
	JSONResponse         *bool             `yaml:"jsonResponse,omitempty"`
	ValidStatusCodes     []int             `yaml:"validStatusCodes,omitempty"`
	ValidStatusCodeStart *int              `yaml:"validStatusCodeStart,omitempty"`
	ValidStatusCodeEnd   *int              `yaml:"validStatusCodeEnd,omitempty"`
	TimeoutMs            int               `yaml:"timeoutMs,omitempty"`
	Capture              map[string]string `yaml:"capture,omitempty"`
	Schema               string            `yaml:"schema,omitempty"`
	Batch                *BatchDef         `yaml:"batch,omitempty"`
}

// BatchDef holds per-call batch settings.
type BatchDef struct {
	Count       int     `yaml:"count,omitempty"`
	Duration    string  `yaml:"duration,omitempty"`
	Rate        float64 `yaml:"rate,omitempty"`
	Concurrency int     `yaml:"concurrency,omitempty"`
}

// MockRoute is one stub response served by the mock server.
type MockRoute struct {
	Method      string            `yaml:"method"`
	Path        string            `yaml:"path"`
	Status      int               `yaml:"status,omitempty"`
	ContentType string            `yaml:"contentType,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	Body        string            `yaml:"body,omitempty"`
	DelayMs     int               `yaml:"delayMs,omitempty"`
}

var knownMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"PATCH":  true,
	"DELETE": true,
}

// Load reads and validates a callfile.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse callfile %s: %w", path, err)
	}

	f.expand()

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &f, nil
}

// FindAndLoad searches dir for a callfile with a default name.
func FindAndLoad(dir string) (*File, error) {
	for _, name := range Filenames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return nil, fmt.Errorf("no callfile found in %s (looked for %s)", dir, strings.Join(Filenames, ", "))
}

// Find returns the named call, or nil.
func (f *File) Find(name string) *Call {
	for _, c := range f.Calls {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Validate checks every call and mock route for the mistakes a user can make
// in YAML.
func (f *File) Validate() error {
	seen := make(map[string]bool)
	for i, c := range f.Calls {
		if c.Name == "" {
			return fmt.Errorf("call %d: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate call name: %s", c.Name)
		}
		seen[c.Name] = true

		if c.URL == "" {
			return fmt.Errorf("call %s: url is required", c.Name)
		}
		if c.Method != "" && !knownMethods[strings.ToUpper(c.Method)] {
			return fmt.Errorf("call %s: unknown method %s", c.Name, c.Method)
		}
		if c.Batch != nil {
			if err := c.Batch.validate(); err != nil {
				return fmt.Errorf("call %s: %w", c.Name, err)
			}
		}
	}

	for i, m := range f.Mock {
		if m.Path == "" {
			return fmt.Errorf("mock route %d: path is required", i)
		}
		if m.Method != "" && !knownMethods[strings.ToUpper(m.Method)] {
			return fmt.Errorf("mock route %s: unknown method %s", m.Path, m.Method)
		}
	}

	return nil
}

func (b *BatchDef) validate() error {
	if b.Count < 0 {
		return fmt.Errorf("batch count cannot be negative")
	}
	if b.Rate < 0 {
		return fmt.Errorf("batch rate cannot be negative")
	}
	if b.Concurrency < 0 {
		return fmt.Errorf("batch concurrency cannot be negative")
	}
	if b.Duration != "" {
		if _, err := time.ParseDuration(b.Duration); err != nil {
			return fmt.Errorf("invalid batch duration %q: %w", b.Duration, err)
		}
	}
	return nil
}

// ParseDuration returns the batch duration, zero when unset.
func (b *BatchDef) ParseDuration() time.Duration {
	if b == nil || b.Duration == "" {
		return 0
	}
	d, _ := time.ParseDuration(b.Duration)
	return d
}

// Spec converts a call definition into an executor spec. Pointer fields map
// presence in YAML directly onto the executor's merge semantics.
func (c *Call) Spec() call.Spec {
	headers := make(httpx.Headers, 0, len(c.Headers))
	for _, h := range c.Headers {
		headers = append(headers, httpx.Header{Key: h.Key, Value: h.Value})
	}

	return call.Spec{
		URL:                  c.URL,
		Method:               strings.ToUpper(c.Method),
		Body:                 c.Body,
		ExtraHeaders:         headers,
		JSONRequest:          c.JSONRequest,
		JSONResponse:         c.JSONResponse,
		ValidStatusCodes:     c.ValidStatusCodes,
		ValidStatusCodeStart: c.ValidStatusCodeStart,
		ValidStatusCodeEnd:   c.ValidStatusCodeEnd,
		TimeoutMs:            c.TimeoutMs,
	}
}

// expand resolves ${VAR} environment references across the file.
func (f *File) expand() {
	for _, c := range f.Calls {
		c.URL = expandEnv(c.URL)
		for i := range c.Headers {
			c.Headers[i].Value = expandEnv(c.Headers[i].Value)
		}
		c.Body = expandValue(c.Body)
	}
	for _, m := range f.Mock {
		m.Body = expandEnv(m.Body)
	}
}

// expandEnv expands environment references in strings that contain ${.
func expandEnv(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, func(name string) string {
		return os.Getenv(name)
	})
}

func expandValue(v any) any {
	switch val := v.(type) {
	case string:
		return expandEnv(val)
	case map[string]any:
		for k, inner := range val {
			val[k] = expandValue(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = expandValue(inner)
		}
		return val
	default:
		return v
	}
}
