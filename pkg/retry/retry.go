package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// ErrMaxAttemptsExceeded wraps the last error once every attempt failed.
var ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")

// Config configures retry behavior
type Config struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultConfig provides sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      10 * time.Minute,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// Backoff returns the wait after the given number of failed attempts
// (attempt >= 1), capped at MaxDelay.
func Backoff(config *Config, attempt int) time.Duration {
	if config == nil {
		config = DefaultConfig()
	}
	if attempt < 1 {
		attempt = 1
	}

	factor := config.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	delay := float64(config.InitialDelay) * math.Pow(factor, float64(attempt-1))

	// +/-10% so clients that failed together spread out
	if config.JitterEnabled {
		delay += delay * 0.1 * (2*rand.Float64() - 1)
	}
	if config.MaxDelay > 0 && delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Do runs fn until it succeeds, returns a non-retryable error, attempts run
// out or ctx ends. A nil retryable treats every error as retryable.
func Do(ctx context.Context, config *Config, retryable func(error) bool, fn func() error) error {
	if config == nil {
		config = DefaultConfig()
	}
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}

		if attempt == attempts {
			break
		}

		timer := time.NewTimer(Backoff(config, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w (%d): %w", ErrMaxAttemptsExceeded, attempts, lastErr)
}
