// Package batch repeats a single call at a target rate and aggregates
// latency and outcome metrics. It adds no retries or queueing to any one
// call; every iteration is an independent execution.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds batch settings.
type Config struct {
	// Count is the number of iterations; 0 means run until Duration elapses.
	Count int
	// Duration bounds the run when Count is 0.
	Duration time.Duration
	// Rate is the target iterations per second; 0 means unthrottled.
	Rate float64
	// Concurrency caps in-flight iterations.
	Concurrency int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Count:       10,
		Rate:        0,
		Concurrency: 5,
	}
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Count <= 0 && c.Duration <= 0 {
		return fmt.Errorf("either count or duration must be positive")
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate cannot be negative")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	return nil
}

// Outcome values recorded per iteration. They mirror call.Result.Outcome.
const (
	OutcomeSuccess      = "success"
	OutcomeAppError     = "app_error"
	OutcomeTimeout      = "timeout"
	OutcomeNetworkError = "network_error"
)

// Runner executes one function repeatedly per the config.
type Runner struct {
	config  *Config
	limiter *rate.Limiter
	sem     chan struct{}
	metrics *Metrics
}

// NewRunner creates a runner; config must already be validated.
func NewRunner(config *Config) *Runner {
	r := &Runner{
		config:  config,
		sem:     make(chan struct{}, config.Concurrency),
		metrics: NewMetrics(),
	}
	if config.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(config.Rate), 1)
	}
	return r
}

// Metrics exposes the collector, useful for live reporting.
func (r *Runner) Metrics() *Metrics {
	return r.metrics
}

// Run executes fn until the configured count or duration is reached, or the
// context is cancelled. fn reports the iteration's outcome and duration.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) (string, time.Duration)) *Summary {
	if r.config.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Duration)
		defer cancel()
	}

	r.metrics.Start()

	var wg sync.WaitGroup
	launched := 0

	for {
		if r.config.Count > 0 && launched >= r.config.Count {
			break
		}
		if ctx.Err() != nil {
			break
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				break
			}
		}

		select {
		case r.sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		launched++
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-r.sem }()

			outcome, duration := fn(ctx)
			r.metrics.Record(outcome, duration)
		}()
	}

	wg.Wait()
	r.metrics.Stop()

	return r.metrics.Summary()
}
