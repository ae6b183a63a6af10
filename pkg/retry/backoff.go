// Package retry runs an operation again with exponential backoff. It is a
// caller-side helper: the dispatcher itself never retries.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
)

// Config holds the configuration for exponential backoff retry logic.
type Config struct {
	// MaxRetries is the maximum number of retry attempts.
	// Set to -1 for unlimited retries.
	MaxRetries int

	// InitialBackoff is the duration to wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum duration to wait between retries.
	MaxBackoff time.Duration

	// Multiplier grows the backoff after each retry.
	Multiplier float64

	// Jitter spreads each backoff by up to 25% either way.
	Jitter bool

	// Retryable decides whether a failed attempt is tried again.
	// Nil means failure.IsTransient.
	Retryable func(err error) bool

	// OnRetry is called before waiting for the next attempt.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultConfig retries transient failures five times starting at one second.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     5,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		Jitter:         true,
	}
}

// Operation is one attempt. A nil error ends the retry loop.
type Operation func(ctx context.Context) error

// WithExponentialBackoff runs op until it succeeds, fails with an error that is
// not retryable, exhausts MaxRetries or ctx is done. A non-retryable error is
// returned unwrapped.
func WithExponentialBackoff(ctx context.Context, cfg Config, op Operation) error {
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = failure.IsTransient
	}

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if cfg.MaxRetries >= 0 && attempt > cfg.MaxRetries {
			return fmt.Errorf("operation failed after %d attempts: %w", attempt, err)
		}

		wait := calculateBackoff(attempt, cfg)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("operation canceled after %d attempts: %w", attempt, ctx.Err())
		case <-timer.C:
		}
	}
}

// calculateBackoff returns InitialBackoff * Multiplier^(retryNumber-1), capped at MaxBackoff.
func calculateBackoff(retryNumber int, cfg Config) time.Duration {
	if retryNumber <= 0 {
		return 0
	}

	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(retryNumber-1))
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	duration := time.Duration(backoff)

	if cfg.Jitter {
		spread := float64(duration) * 0.25
		duration = time.Duration(float64(duration) + rand.Float64()*2*spread - spread)
		duration = min(max(duration, 0), cfg.MaxBackoff)
	}

	return duration
}
