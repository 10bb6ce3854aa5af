// Package client provides the API-Football HTTP client with daily quota
// accounting, in-flight request deduplication, and retry on per-minute
// rate limits.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/apifootball-client/pkg/logging"
	"github.com/Sternrassler/apifootball-client/pkg/quota"
	"github.com/Sternrassler/apifootball-client/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apifootball_requests_total",
		Help: "Total logical API-Football requests by resource and outcome",
	}, []string{"resource", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "apifootball_request_duration_seconds",
		Help:    "Logical request duration in seconds by resource, retries included",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"resource"})

	upstreamCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apifootball_upstream_calls_total",
		Help: "Total physical HTTP round trips to API-Football by resource and status",
	}, []string{"resource", "status"})
)

// Outcome labels for apifootball_requests_total.
const (
	OutcomeOK            = "ok"
	OutcomeQuotaExceeded = "quota_exceeded"
	OutcomeTransport     = "transport_error"
	OutcomeAPIError      = "api_error"
	OutcomeRateLimited   = "rate_limited"
	OutcomeCancelled     = "cancelled"
	OutcomeOther         = "other"
)

const (
	// DefaultBaseURL is the API-Football v3 endpoint.
	DefaultBaseURL = "https://v3.football.api-sports.io"

	// DefaultSeason is the season used when callers do not pass one.
	DefaultSeason = 2024

	// DefaultRequestsPerMinute matches the free plan.
	DefaultRequestsPerMinute = 10

	// APIKeyHeader carries the account key on every request.
	APIKeyHeader = "x-apisports-key"
)

// Client is the API-Football client.
type Client struct {
	httpClient *http.Client
	quota      *quota.Tracker
	limiter    *rate.Limiter
	group      singleflight.Group
	retry      RetryPolicy
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Store persists the daily quota counter (REQUIRED).
	Store storage.Store

	// APIKey is sent in the x-apisports-key header. An empty key is allowed
	// but every call will be rejected by the provider.
	APIKey string

	// BaseURL of the provider, without trailing resource path.
	BaseURL string

	// Quota
	DailyLimit int // Calls per calendar day

	// Pacing: requests per minute sent upstream, 0 disables pacing
	RequestsPerMinute int

	// Retry (per-minute rate limits only)
	MaxRetries   int
	RetryBackoff time.Duration

	// Season used by the convenience endpoints
	Season int

	// Timeout for a single HTTP round trip
	Timeout time.Duration
}

// DefaultConfig returns the free-plan configuration.
func DefaultConfig(store storage.Store, apiKey string) Config {
	return Config{
		Store:             store,
		APIKey:            apiKey,
		BaseURL:           DefaultBaseURL,
		DailyLimit:        quota.DefaultDailyLimit,
		RequestsPerMinute: DefaultRequestsPerMinute,
		MaxRetries:        2,
		RetryBackoff:      DefaultRetryBackoff,
		Season:            DefaultSeason,
		Timeout:           30 * time.Second,
	}
}

// New creates a new API-Football client.
func New(cfg Config) (*Client, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base_url must be an absolute URL (got %q)", cfg.BaseURL)
	}

	if cfg.DailyLimit < 1 {
		return nil, fmt.Errorf("daily_limit must be >= 1 (got %d)", cfg.DailyLimit)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.RetryBackoff < 0 {
		return nil, fmt.Errorf("retry_backoff must be >= 0 (got %s)", cfg.RetryBackoff)
	}

	if cfg.RequestsPerMinute < 0 {
		return nil, fmt.Errorf("requests_per_minute must be >= 0 (got %d)", cfg.RequestsPerMinute)
	}

	if cfg.Season < 1 {
		return nil, fmt.Errorf("season must be set (got %d)", cfg.Season)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	logger := logging.NewLogger("apifootball-client")
	if cfg.APIKey == "" {
		logger.Warn().Msg("No API key configured, provider will reject requests")
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		quota:   quota.NewTracker(cfg.Store, cfg.DailyLimit, logging.NewLogger("quota")),
		limiter: limiter,
		retry: RetryPolicy{
			MaxAttempts: cfg.MaxRetries + 1,
			Backoff:     FixedBackoff(cfg.RetryBackoff),
			IsRetryable: IsRetryable,
		},
		config: cfg,
		logger: logger,
	}, nil
}

// APIConfig is the non-secret view of the client configuration.
type APIConfig struct {
	BaseURL      string `json:"baseUrl"`
	IsConfigured bool   `json:"isConfigured"`
}

// Config reports the base URL and whether an API key is set.
func (c *Client) Config() APIConfig {
	return APIConfig{
		BaseURL:      c.config.BaseURL,
		IsConfigured: c.config.APIKey != "",
	}
}

// Season returns the configured default season.
func (c *Client) Season() int {
	return c.config.Season
}

// Quota returns the daily quota tracker.
func (c *Client) Quota() *quota.Tracker {
	return c.quota
}

// Usage returns today's quota usage.
func (c *Client) Usage(ctx context.Context) quota.Usage {
	return c.quota.Usage(ctx)
}

// ResetUsage clears the local quota counter.
func (c *Client) ResetUsage(ctx context.Context) error {
	return c.quota.Reset(ctx)
}

// Fetch performs GET {baseURL}/{resource}?{query} and returns the records in
// the response envelope. Concurrent identical requests share one network
// call. A missing response payload yields an empty, non-nil slice.
//
// Cancelling ctx stops this caller from waiting but does not abort the
// shared call; other callers may still be waiting on it. The shared call is
// bounded by the HTTP timeout and the retry policy.
func (c *Client) Fetch(ctx context.Context, resource string, query url.Values) ([]json.RawMessage, error) {
	key := requestKey(resource, query)
	shared := context.WithoutCancel(ctx)
	return c.dedupe(ctx, resource, key, func() ([]json.RawMessage, error) {
		return c.fetchWithRetry(shared, resource, query)
	})
}

func (c *Client) fetchWithRetry(ctx context.Context, resource string, query url.Values) ([]json.RawMessage, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(resource).Observe(time.Since(startTime).Seconds())
	}()

	var records []json.RawMessage
	err := retryWithBackoff(ctx, c.logger, c.retry, resource, func(attempt int) error {
		r, err := c.attempt(ctx, resource, query)
		if err != nil {
			return err
		}
		records = r
		return nil
	})

	requestsTotal.WithLabelValues(resource, outcomeOf(err)).Inc()
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("resource", resource).
		Str("query", query.Encode()).
		Int("records", len(records)).
		Msg("API-Football request succeeded")
	return records, nil
}

// attempt is one physical round trip: quota gate, pacing, HTTP, envelope,
// and quota increment on success.
func (c *Client) attempt(ctx context.Context, resource string, query url.Values) ([]json.RawMessage, error) {
	if err := c.quota.Check(ctx); err != nil {
		return nil, err
	}

	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	env, err := c.do(ctx, resource, query)
	if err != nil {
		return nil, err
	}
	if err := env.embeddedError(); err != nil {
		return nil, err
	}
	records, err := env.records()
	if err != nil {
		return nil, err
	}

	// Count before any waiter sees the result.
	if _, err := c.quota.Increment(ctx); err != nil {
		c.logger.Warn().Err(err).Str("resource", resource).Msg("Failed to record quota usage")
	}
	return records, nil
}

func (c *Client) pace(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrContextCancelled, err)
	}
	return nil
}

// do executes one GET and decodes the envelope. Non-2xx statuses become
// TransportError.
func (c *Client) do(ctx context.Context, resource string, query url.Values) (*envelope, error) {
	target := c.config.BaseURL + "/" + strings.TrimLeft(resource, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(APIKeyHeader, c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("resource", resource).
		Str("query", query.Encode()).
		Msg("Executing API-Football request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		upstreamCallsTotal.WithLabelValues(resource, "network_error").Inc()
		c.logger.Error().Err(err).Str("resource", resource).Msg("HTTP request failed")
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		}
		return nil, &TransportError{Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	upstreamCallsTotal.WithLabelValues(resource, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Warn().
			Str("resource", resource).
			Int("status", resp.StatusCode).
			Msg("API-Football request error")
		return nil, &TransportError{StatusCode: resp.StatusCode, Resource: resource}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Resource:   resource,
			Err:        fmt.Errorf("decode response body: %w", err),
		}
	}
	return &env, nil
}

// outcomeOf classifies err for metrics.
func outcomeOf(err error) string {
	var (
		te  *TransportError
		api *APIError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrContextCancelled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	case errors.Is(err, ErrRateLimited):
		return OutcomeRateLimited
	case errors.Is(err, ErrQuotaExceeded) && !errors.As(err, &api):
		return OutcomeQuotaExceeded
	case errors.As(err, &te):
		return OutcomeTransport
	case errors.As(err, &api):
		return OutcomeAPIError
	default:
		return OutcomeOther
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetRetryPolicy replaces the retry policy (for testing).
func (c *Client) SetRetryPolicy(p RetryPolicy) {
	c.retry = p
}
