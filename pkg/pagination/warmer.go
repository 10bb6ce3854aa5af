package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/apifootball-client/pkg/cache"
	"github.com/Sternrassler/apifootball-client/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// WarmConfig holds warmer configuration.
type WarmConfig struct {
	// MaxConcurrency is the maximum number of segments resolved in parallel.
	// The client's per-minute limiter still paces the actual calls.
	MaxConcurrency int
	// Timeout per segment.
	Timeout time.Duration
}

// DefaultWarmConfig returns defaults suited to the free plan.
func DefaultWarmConfig() WarmConfig {
	return WarmConfig{
		MaxConcurrency: 2,
		Timeout:        time.Minute,
	}
}

// WarmReport summarizes a warm run.
type WarmReport struct {
	Segments int           // segments considered
	Cached   int           // already present, no call made
	Fetched  int           // resolved from the network
	Failed   int           // failed segments
	Records  int           // records held by cached + fetched segments
	Duration time.Duration // wall time
}

// Warmer fills the global segments ahead of browsing so that the global
// scope can later be served from cache.
type Warmer struct {
	resolver resolver
	config   WarmConfig
}

// NewWarmer creates a warmer.
func NewWarmer(source Source, rc *cache.ResultCache, cfg Config, warm WarmConfig) *Warmer {
	if source == nil {
		panic("source cannot be nil")
	}
	if rc == nil {
		panic("result cache cannot be nil")
	}
	if warm.MaxConcurrency <= 0 {
		warm.MaxConcurrency = 2
	}
	if warm.Timeout <= 0 {
		warm.Timeout = time.Minute
	}
	return &Warmer{
		resolver: resolver{
			source: source,
			cache:  rc,
			config: cfg.withDefaults(),
			logger: logging.NewLogger("warmer"),
		},
		config: warm,
	}
}

// WarmGlobal resolves every top-league segment, cache first. A failing
// segment does not stop the others; all failures are joined into the
// returned error and the report still covers the successful segments.
func (w *Warmer) WarmGlobal(ctx context.Context) (WarmReport, error) {
	start := time.Now()
	leagues := w.resolver.config.TopLeagues

	report := WarmReport{Segments: len(leagues)}
	var (
		mu   sync.Mutex
		errs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.MaxConcurrency)

	for _, league := range leagues {
		g.Go(func() error {
			segCtx, cancel := context.WithTimeout(gctx, w.config.Timeout)
			defer cancel()

			records, cached, err := w.resolver.segment(segCtx, league.ID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed++
				errs = append(errs, fmt.Errorf("segment %s (%d): %w", league.Name, league.ID, err))
				w.resolver.logger.Warn().
					Err(err).
					Int("league_id", league.ID).
					Msg("Segment warm failed")
			case cached:
				report.Cached++
				report.Records += len(records)
			default:
				report.Fetched++
				report.Records += len(records)
			}
			// Failures are collected, not propagated, so siblings keep running.
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(start)
	w.resolver.logger.Info().
		Int("segments", report.Segments).
		Int("cached", report.Cached).
		Int("fetched", report.Fetched).
		Int("failed", report.Failed).
		Int("records", report.Records).
		Dur("duration", report.Duration).
		Msg("Global segments warmed")

	return report, errors.Join(errs...)
}
