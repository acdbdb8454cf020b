package batch

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Metrics collects iteration outcomes and latencies.
type Metrics struct {
	total         atomic.Int64
	success       atomic.Int64
	appErrors     atomic.Int64
	timeouts      atomic.Int64
	networkErrors atomic.Int64

	// Latency histogram (in microseconds for precision)
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram

	startTime time.Time
	endTime   time.Time
}

// Summary is the aggregated result of a batch run.
type Summary struct {
	Total         int64
	Success       int64
	AppErrors     int64
	Timeouts      int64
	NetworkErrors int64
	Duration      time.Duration
	RPS           float64
	P50           time.Duration
	P95           time.Duration
	P99           time.Duration
	Max           time.Duration
}

// NewMetrics creates a new Metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		// Histogram: 1us to 60s range, 3 significant digits
		histogram: hdrhistogram.New(1, 60_000_000, 3),
	}
}

// Start marks the beginning of the run
func (m *Metrics) Start() {
	m.startTime = time.Now()
}

// Stop marks the end of the run
func (m *Metrics) Stop() {
	m.endTime = time.Now()
}

// Record records one iteration.
func (m *Metrics) Record(outcome string, duration time.Duration) {
	m.total.Add(1)

	switch outcome {
	case OutcomeSuccess:
		m.success.Add(1)
	case OutcomeAppError:
		m.appErrors.Add(1)
	case OutcomeTimeout:
		m.timeouts.Add(1)
	default:
		m.networkErrors.Add(1)
	}

	latencyUs := duration.Microseconds()
	if latencyUs < 1 {
		latencyUs = 1
	}
	if latencyUs > 60_000_000 {
		latencyUs = 60_000_000
	}

	m.mu.Lock()
	_ = m.histogram.RecordValue(latencyUs)
	m.mu.Unlock()
}

// Summary aggregates everything recorded so far.
func (m *Metrics) Summary() *Summary {
	elapsed := m.elapsed()

	s := &Summary{
		Total:         m.total.Load(),
		Success:       m.success.Load(),
		AppErrors:     m.appErrors.Load(),
		Timeouts:      m.timeouts.Load(),
		NetworkErrors: m.networkErrors.Load(),
		Duration:      elapsed,
	}

	if elapsed > 0 {
		s.RPS = float64(s.Total) / elapsed.Seconds()
	}

	m.mu.Lock()
	s.P50 = time.Duration(m.histogram.ValueAtQuantile(50)) * time.Microsecond
	s.P95 = time.Duration(m.histogram.ValueAtQuantile(95)) * time.Microsecond
	s.P99 = time.Duration(m.histogram.ValueAtQuantile(99)) * time.Microsecond
	s.Max = time.Duration(m.histogram.Max()) * time.Microsecond
	m.mu.Unlock()

	return s
}

// ErrorRate returns the fraction of iterations that did not succeed.
func (s *Summary) ErrorRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Total-s.Success) / float64(s.Total)
}

func (m *Metrics) elapsed() time.Duration {
	if m.startTime.IsZero() {
		return 0
	}
	end := m.endTime
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(m.startTime)
}
