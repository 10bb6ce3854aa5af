package quota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/apifootball-client/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ErrQuotaExceeded is returned by Check once the daily allowance is spent.
var ErrQuotaExceeded = errors.New("daily API quota exceeded")

// Prometheus metrics for quota tracking.
var (
	quotaUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "apifootball_quota_used",
		Help: "Calls spent against the provider's daily allowance",
	})

	quotaRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "apifootball_quota_remaining",
		Help: "Calls left in the provider's daily allowance",
	})

	quotaBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apifootball_quota_blocks_total",
		Help: "Total number of requests refused because the daily quota was spent",
	})

	quotaSyncOverwritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apifootball_quota_sync_overwrites_total",
		Help: "Total number of times a remote usage figure replaced the local counter",
	})
)

// Tracker reads and updates the day-scoped counter in a shared store.
type Tracker struct {
	store  storage.Store
	limit  int
	now    func() time.Time
	logger zerolog.Logger

	// mu serializes read-modify-write cycles on the counter.
	mu sync.Mutex
}

// NewTracker creates a tracker for the given daily limit.
// A non-positive limit falls back to DefaultDailyLimit.
func NewTracker(store storage.Store, limit int, logger zerolog.Logger) *Tracker {
	if store == nil {
		panic("store cannot be nil")
	}
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &Tracker{
		store:  store,
		limit:  limit,
		now:    time.Now,
		logger: logger,
	}
}

// SetClock overrides the time source (for testing).
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// Limit returns the configured daily limit.
func (t *Tracker) Limit() int {
	return t.limit
}

// counter loads the stored counter. A counter from another day reads as
// zero for today; storage is left untouched until the next write.
func (t *Tracker) counter(ctx context.Context) (Counter, error) {
	today := Today(t.now())
	fresh := Counter{Count: 0, Date: today}

	data, err := t.store.Get(ctx, StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fresh, nil
		}
		return fresh, fmt.Errorf("read quota counter: %w", err)
	}

	var c Counter
	if err := json.Unmarshal(data, &c); err != nil {
		t.logger.Warn().Err(err).Msg("Malformed quota counter, treating as empty")
		return fresh, nil
	}
	if c.Date != today {
		return fresh, nil
	}
	if c.Count < 0 {
		c.Count = 0
	}
	return c, nil
}

func (t *Tracker) write(ctx context.Context, c Counter) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal quota counter: %w", err)
	}
	if err := t.store.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("store quota counter: %w", err)
	}
	t.observe(c)
	return nil
}

func (t *Tracker) observe(c Counter) {
	u := UsageOf(c, t.limit)
	quotaUsed.Set(float64(u.Used))
	quotaRemaining.Set(float64(u.Remaining))
}

// Usage returns the current usage. It never fails; storage errors are
// logged and reported as an unused day.
func (t *Tracker) Usage(ctx context.Context) Usage {
	c, err := t.counter(ctx)
	if err != nil {
		t.logger.Warn().Err(err).Msg("Quota counter unreadable, reporting zero usage")
	}
	t.observe(c)
	return UsageOf(c, t.limit)
}

// Check returns ErrQuotaExceeded when the allowance for today is spent.
func (t *Tracker) Check(ctx context.Context) error {
	c, err := t.counter(ctx)
	if err != nil {
		return err
	}
	if c.Count >= t.limit {
		quotaBlocksTotal.Inc()
		t.logger.Error().
			Int("used", c.Count).
			Int("limit", t.limit).
			Msg("Daily quota exhausted - blocking request")
		return ErrQuotaExceeded
	}
	return nil
}

// Increment records one successful network call.
func (t *Tracker) Increment(ctx context.Context) (Counter, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, err := t.counter(ctx)
	if err != nil {
		return c, err
	}
	c.Count++
	if err := t.write(ctx, c); err != nil {
		return c, err
	}

	t.logger.Debug().Int("used", c.Count).Int("limit", t.limit).Msg("Quota counter incremented")
	return c, nil
}

// Reset clears the counter entirely.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Remove(ctx, StorageKey); err != nil {
		return fmt.Errorf("reset quota counter: %w", err)
	}
	t.observe(Counter{Date: Today(t.now())})
	t.logger.Info().Msg("Quota counter reset")
	return nil
}

// SyncWithRemote reconciles the local counter with an authoritative figure.
// The remote value wins only when it is strictly greater: a lagging remote
// must never lower the local count.
func (t *Tracker) SyncWithRemote(ctx context.Context, remoteUsed int) (Usage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, err := t.counter(ctx)
	if err != nil {
		return UsageOf(c, t.limit), err
	}

	if remoteUsed > c.Count {
		t.logger.Info().
			Int("local", c.Count).
			Int("remote", remoteUsed).
			Msg("Remote usage ahead of local counter, adopting remote value")
		c.Count = remoteUsed
		if err := t.write(ctx, c); err != nil {
			return UsageOf(c, t.limit), err
		}
		quotaSyncOverwritesTotal.Inc()
	} else {
		t.logger.Debug().
			Int("local", c.Count).
			Int("remote", remoteUsed).
			Msg("Local counter kept")
	}

	return UsageOf(c, t.limit), nil
}
