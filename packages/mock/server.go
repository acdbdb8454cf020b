// Package mock provides a stub HTTP server that serves canned responses
// defined in a callfile's mock section.
package mock

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jcall-dev/jcall/packages/callfile"
)

// Server serves mock routes loaded from a callfile.
type Server struct {
	router  *Router
	port    int
	delay   time.Duration
	verbose bool
}

// Option is a functional option for Server
type Option func(*Server)

// WithPort sets the server port
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay adds a delay to all responses
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithVerbose enables request logging
func WithVerbose(verbose bool) Option {
	return func(s *Server) {
		s.verbose = verbose
	}
}

// NewServer creates a new mock server
func NewServer(opts ...Option) *Server {
	s := &Server{
		router: NewRouter(),
		port:   3000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadRoutes registers the callfile's mock routes.
func (s *Server) LoadRoutes(routes []*callfile.MockRoute) error {
	for _, def := range routes {
		method := strings.ToUpper(def.Method)
		if method == "" {
			method = http.MethodGet
		}

		status := def.Status
		if status == 0 {
			status = http.StatusOK
		}

		contentType := def.ContentType
		if contentType == "" {
			contentType = "application/json"
		}

		s.router.AddRoute(&Route{
			Method:      method,
			PathPattern: normalizePath(def.Path),
			PathRegex:   compilePathPattern(def.Path),
			Response: &MockResponse{
				StatusCode:  status,
				ContentType: contentType,
				Headers:     def.Headers,
				Body:        def.Body,
				DelayMs:     def.DelayMs,
			},
		})
	}
	return nil
}

// Handler returns the http.Handler serving the loaded routes. Exposed so
// tests can mount it on httptest servers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	return mux
}

// RouteCount returns the number of loaded routes.
func (s *Server) RouteCount() int {
	return len(s.router.routes)
}

// Start starts the server and blocks; ctx cancellation shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)

	server := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("Mock server starting on http://localhost:%d", s.port)
	log.Printf("Routes loaded: %d", s.RouteCount())

	if s.verbose {
		for _, route := range s.router.routes {
			log.Printf("  %s %s -> %d", route.Method, route.PathPattern, route.Response.StatusCode)
		}
	}

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	route, params := s.router.Match(r.Method, r.URL.Path)

	if route == nil {
		if s.verbose {
			log.Printf("%s %s -> 404 Not Found (%s)", r.Method, r.URL.Path, time.Since(start))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "no mock route matches"}`))
		return
	}

	resp := route.Response

	if resp.DelayMs > 0 {
		time.Sleep(time.Duration(resp.DelayMs) * time.Millisecond)
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", resp.ContentType)

	body := resolveBodyParams(resp.Body, params)

	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write([]byte(body))

	if s.verbose {
		log.Printf("%s %s -> %d (%s)", r.Method, r.URL.Path, resp.StatusCode, time.Since(start))
	}
}

// resolveBodyParams substitutes :param captures into the body as {param}.
func resolveBodyParams(body string, params map[string]string) string {
	result := body
	for key, value := range params {
		result = strings.ReplaceAll(result, "{"+key+"}", value)
	}
	return result
}
