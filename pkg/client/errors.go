package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Sternrassler/apifootball-client/pkg/quota"
)

// Common errors returned by the client.
var (
	// ErrQuotaExceeded is returned before any network traffic once the local
	// daily counter has reached its limit.
	ErrQuotaExceeded = quota.ErrQuotaExceeded

	// ErrRateLimited marks a provider-reported per-minute rate limit. It is the
	// only condition the client retries.
	ErrRateLimited = errors.New("per-minute rate limit reached")

	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the caller's context ends while
	// waiting for a retry, the request pacer or a shared in-flight request.
	ErrContextCancelled = errors.New("context cancelled")
)

// TransportError is a failure at the HTTP level: a non-2xx status or a
// request that never produced a response (StatusCode 0). It is never retried.
type TransportError struct {
	StatusCode int
	Resource   string
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("transport error on %s: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("transport error on %s: HTTP %d %s",
		e.Resource, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is an application error the provider embedded in a 200 response.
type APIError struct {
	// Message is the provider's text, "key: text" joined for keyed errors.
	Message string
	Err     error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("API-Football error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("API-Football error: %s", e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a per-minute rate limit that has not
// yet exhausted its retries.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) && !errors.Is(err, ErrRetryExhausted)
}

// IsQuotaExceeded reports whether err means the daily allowance is spent,
// either by the local counter or by the provider's own accounting.
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// StatusCode returns the HTTP status carried by a TransportError, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}
