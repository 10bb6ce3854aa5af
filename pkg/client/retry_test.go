package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testPolicy(maxAttempts int, backoff time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     FixedBackoff(backoff),
		IsRetryable: IsRetryable,
	}
}

func rateLimitErr() error {
	return &APIError{Message: "rateLimit: 10 requests per minute", Err: ErrRateLimited}
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()

	if p.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", p.MaxAttempts)
	}
	for attempt := 1; attempt <= 2; attempt++ {
		if got := p.Backoff(attempt); got != 10*time.Second {
			t.Errorf("Backoff(%d) = %v, want 10s", attempt, got)
		}
	}
	if !p.IsRetryable(rateLimitErr()) {
		t.Error("default policy does not retry rate limits")
	}
}

func TestRetryPolicy_Normalized(t *testing.T) {
	p := RetryPolicy{}.normalized()
	if p.MaxAttempts != 1 || p.Backoff == nil || p.IsRetryable == nil {
		t.Errorf("normalized zero policy = %+v", p)
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	callCount := 0
	err := retryWithBackoff(context.Background(), zerolog.Nop(), testPolicy(3, time.Millisecond), "players",
		func(int) error {
			callCount++
			return nil
		})

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
}

func TestRetryWithBackoff_SuccessAfterRetry(t *testing.T) {
	var attempts []int
	start := time.Now()
	err := retryWithBackoff(context.Background(), zerolog.Nop(), testPolicy(3, 20*time.Millisecond), "players",
		func(attempt int) error {
			attempts = append(attempts, attempt)
			if attempt < 3 {
				return rateLimitErr()
			}
			return nil
		})
	duration := time.Since(start)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if len(attempts) != 3 || attempts[0] != 1 || attempts[2] != 3 {
		t.Errorf("attempts = %v, want [1 2 3]", attempts)
	}
	// Two fixed waits of 20ms.
	if duration < 40*time.Millisecond {
		t.Errorf("Expected backoff delay, got %v", duration)
	}
}

func TestRetryWithBackoff_MaxAttemptsExhausted(t *testing.T) {
	callCount := 0
	err := retryWithBackoff(context.Background(), zerolog.Nop(), testPolicy(3, time.Millisecond), "players",
		func(int) error {
			callCount++
			return rateLimitErr()
		})

	if callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", callCount)
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T", err)
	}
	if apiErr.Message != "rateLimit: 10 requests per minute" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestRetryWithBackoff_NonRetryableNoRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"api error", &APIError{Message: "team: invalid"}},
		{"transport error", &TransportError{StatusCode: 500, Resource: "teams"}},
		{"quota exceeded", ErrQuotaExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callCount := 0
			err := retryWithBackoff(context.Background(), zerolog.Nop(), testPolicy(3, time.Millisecond), "teams",
				func(int) error {
					callCount++
					return tt.err
				})

			if callCount != 1 {
				t.Errorf("Expected 1 call, got %d", callCount)
			}
			if err != tt.err {
				t.Errorf("Expected original error, got %v", err)
			}
		})
	}
}

func TestRetryWithBackoff_ZeroRetries(t *testing.T) {
	callCount := 0
	err := retryWithBackoff(context.Background(), zerolog.Nop(), testPolicy(1, time.Hour), "players",
		func(int) error {
			callCount++
			return rateLimitErr()
		})

	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
	if !errors.Is(err, ErrRateLimited) || !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("err = %v", err)
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	callCount := 0
	start := time.Now()
	err := retryWithBackoff(ctx, zerolog.Nop(), testPolicy(3, time.Minute), "players",
		func(int) error {
			callCount++
			if callCount == 1 {
				go func() {
					time.Sleep(20 * time.Millisecond)
					cancel()
				}()
			}
			return rateLimitErr()
		})

	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("Expected ErrContextCancelled, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("backoff did not stop on cancellation")
	}
}

func TestRetryWithBackoff_CustomPredicate(t *testing.T) {
	transient := errors.New("transient")
	policy := RetryPolicy{
		MaxAttempts: 4,
		Backoff:     func(attempt int) time.Duration { return time.Duration(attempt) * time.Millisecond },
		IsRetryable: func(err error) bool { return errors.Is(err, transient) },
	}

	callCount := 0
	err := retryWithBackoff(context.Background(), zerolog.Nop(), policy, "teams", func(int) error {
		callCount++
		return transient
	})

	if callCount != 4 {
		t.Errorf("Expected 4 calls, got %d", callCount)
	}
	if !errors.Is(err, ErrRetryExhausted) || !errors.Is(err, transient) {
		t.Errorf("err = %v", err)
	}
}
