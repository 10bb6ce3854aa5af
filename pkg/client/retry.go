package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apifootball_retries_total",
		Help: "Total number of retry attempts by resource",
	}, []string{"resource"})

	retryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "apifootball_retry_backoff_seconds",
		Help:    "Backoff duration waited before a retry",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apifootball_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by resource",
	}, []string{"resource"})
)

// DefaultRetryBackoff is the fixed wait between rate-limited attempts.
const DefaultRetryBackoff = 10 * time.Second

// RetryPolicy decides how often and how long to wait between attempts.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// Backoff returns the wait before attempt+1, given the attempt that failed.
	Backoff func(attempt int) time.Duration

	// IsRetryable selects the errors worth another attempt.
	IsRetryable func(err error) bool
}

// FixedBackoff waits d before every retry.
func FixedBackoff(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// DefaultRetryPolicy retries per-minute rate limits twice, ten seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     FixedBackoff(DefaultRetryBackoff),
		IsRetryable: IsRetryable,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Backoff == nil {
		p.Backoff = FixedBackoff(DefaultRetryBackoff)
	}
	if p.IsRetryable == nil {
		p.IsRetryable = IsRetryable
	}
	return p
}

// retryWithBackoff runs fn until it succeeds, returns a non-retryable error,
// or runs out of attempts. The wait between attempts honours ctx.
func retryWithBackoff(ctx context.Context, logger zerolog.Logger, policy RetryPolicy, resource string, fn func(attempt int) error) error {
	policy = policy.normalized()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Str("resource", resource).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err

		if !policy.IsRetryable(err) {
			return err
		}

		// If this was the last attempt, don't wait
		if attempt >= policy.MaxAttempts {
			break
		}

		retriesTotal.WithLabelValues(resource).Inc()
		backoff := policy.Backoff(attempt)
		retryBackoffSeconds.Observe(backoff.Seconds())

		logger.Warn().
			Err(err).
			Str("resource", resource).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("Rate limited, retrying after backoff")

		select {
		case <-ctx.Done():
			logger.Warn().
				Str("resource", resource).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(backoff):
		}
	}

	retryExhaustedTotal.WithLabelValues(resource).Inc()
	logger.Error().
		Err(lastErr).
		Str("resource", resource).
		Int("max_attempts", policy.MaxAttempts).
		Msg("Retry attempts exhausted")

	return exhausted(lastErr, policy.MaxAttempts)
}

// exhausted escalates the last error. A rate-limit APIError keeps its
// message and gains ErrRetryExhausted so callers can tell the two apart.
func exhausted(lastErr error, attempts int) error {
	var apiErr *APIError
	if errors.As(lastErr, &apiErr) {
		return &APIError{
			Message: apiErr.Message,
			Err:     fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, apiErr.Err),
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, lastErr)
}
