package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by key kind
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apifootball_cache_hits_total",
			Help: "Total number of result cache hits",
		},
		[]string{"kind"}, // "team_players", "league_players", "global_top", "nations", ...
	)

	// CacheMisses tracks cache misses by key kind
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apifootball_cache_misses_total",
			Help: "Total number of result cache misses",
		},
		[]string{"kind"},
	)

	// CacheWrites tracks persisted payloads
	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apifootball_cache_writes_total",
			Help: "Total number of payloads written to the result cache",
		},
		[]string{"kind"},
	)

	// CacheSkippedWrites tracks empty payloads that were not persisted
	CacheSkippedWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "apifootball_cache_skipped_writes_total",
			Help: "Total number of empty payloads not written to the result cache",
		},
	)

	// CachePurged tracks malformed entries removed on read
	CachePurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "apifootball_cache_purged_total",
			Help: "Total number of malformed cache entries removed",
		},
	)

	// CacheErrors tracks storage errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apifootball_cache_errors_total",
			Help: "Total number of result cache storage errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "keys"
	)
)
