package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Sternrassler/apifootball-client/pkg/storage"
	"github.com/rs/zerolog"
)

// ResultCache persists API result lists as JSON arrays of raw records.
// Entries never expire; player lists are dropped only by ClearPlayers.
type ResultCache struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewResultCache creates a cache on top of store.
func NewResultCache(store storage.Store, logger zerolog.Logger) *ResultCache {
	if store == nil {
		panic("store cannot be nil")
	}
	return &ResultCache{
		store:  store,
		logger: logger,
	}
}

// load reads and decodes key. Malformed entries are removed.
func (c *ResultCache) load(ctx context.Context, key string) ([]json.RawMessage, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			CacheErrors.WithLabelValues("get").Inc()
			c.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, treating as miss")
		}
		return nil, false
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Malformed cache entry, purging")
		if err := c.store.Remove(ctx, key); err != nil {
			CacheErrors.WithLabelValues("delete").Inc()
		}
		CachePurged.Inc()
		return nil, false
	}
	if len(records) == 0 {
		return nil, false
	}
	return records, true
}

// Get returns the records stored under key. A missing, empty or unreadable
// entry is reported as absent.
func (c *ResultCache) Get(ctx context.Context, key string) ([]json.RawMessage, bool) {
	records, ok := c.load(ctx, key)
	if !ok {
		CacheMisses.WithLabelValues(kindOf(key)).Inc()
		c.logger.Debug().Str("key", key).Msg("Cache miss")
		return nil, false
	}
	CacheHits.WithLabelValues(kindOf(key)).Inc()
	c.logger.Debug().Str("key", key).Int("records", len(records)).Msg("Cache hit")
	return records, true
}

// Put stores payload under key. Empty payloads are not stored and Put
// reports false for them.
func (c *ResultCache) Put(ctx context.Context, key string, payload []json.RawMessage) (bool, error) {
	if len(payload) == 0 {
		CacheSkippedWrites.Inc()
		return false, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return false, fmt.Errorf("marshal cache payload: %w", err)
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return false, fmt.Errorf("store cache payload %s: %w", key, err)
	}

	CacheWrites.WithLabelValues(kindOf(key)).Inc()
	return true, nil
}

// PutValue marshals v (typically a slice of normalized records) and stores
// it under key. Empty slices are skipped like in Put.
func (c *ResultCache) PutValue(ctx context.Context, key string, v any) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return false, fmt.Errorf("marshal cache value: %w", err)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return false, fmt.Errorf("cache value for %s is not a list: %w", key, err)
	}
	return c.Put(ctx, key, records)
}

// Remove deletes key.
func (c *ResultCache) Remove(ctx context.Context, key string) error {
	if err := c.store.Remove(ctx, key); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("remove cache entry %s: %w", key, err)
	}
	return nil
}

// ScanPlayers concatenates the payloads of every player-list key in key
// order. Unreadable entries are skipped.
func (c *ResultCache) ScanPlayers(ctx context.Context) ([]json.RawMessage, error) {
	keys, err := c.store.Keys(ctx, PlayersPrefix)
	if err != nil {
		CacheErrors.WithLabelValues("keys").Inc()
		return nil, fmt.Errorf("list player cache keys: %w", err)
	}

	var all []json.RawMessage
	for _, key := range keys {
		records, ok := c.load(ctx, key)
		if !ok {
			continue
		}
		all = append(all, records...)
	}
	return all, nil
}

// ClearPlayers removes every player-list entry and returns how many were
// removed. Reference data and the quota counter are untouched.
func (c *ResultCache) ClearPlayers(ctx context.Context) (int, error) {
	keys, err := c.store.Keys(ctx, PlayersPrefix)
	if err != nil {
		CacheErrors.WithLabelValues("keys").Inc()
		return 0, fmt.Errorf("list player cache keys: %w", err)
	}

	removed := 0
	for _, key := range keys {
		if err := c.store.Remove(ctx, key); err != nil {
			CacheErrors.WithLabelValues("delete").Inc()
			return removed, fmt.Errorf("remove %s: %w", key, err)
		}
		removed++
	}

	c.logger.Info().Int("removed", removed).Msg("Player cache cleared")
	return removed, nil
}
