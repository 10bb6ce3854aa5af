package main

import (
	"context"
	"fmt"

	"github.com/Sternrassler/apifootball-client/internal/config"
	"github.com/Sternrassler/apifootball-client/pkg/cache"
	"github.com/Sternrassler/apifootball-client/pkg/catalog"
	"github.com/Sternrassler/apifootball-client/pkg/client"
	"github.com/Sternrassler/apifootball-client/pkg/logging"
	"github.com/Sternrassler/apifootball-client/pkg/pagination"
	"github.com/Sternrassler/apifootball-client/pkg/search"
	"github.com/Sternrassler/apifootball-client/pkg/storage"
	"github.com/redis/go-redis/v9"
)

// app wires the components on top of one store.
type app struct {
	cfg     config.Config
	store   storage.Store
	client  *client.Client
	cache   *cache.ResultCache
	catalog *catalog.Catalog
	search  *search.Searcher

	closers []func() error
}

// openStore opens the configured storage backend.
func openStore(ctx context.Context, cfg config.Config) (storage.Store, func() error, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return storage.NewMemoryStore(), func() error { return nil }, nil

	case config.StorageRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return storage.NewRedisStore(redisClient), redisClient.Close, nil

	case config.StorageSQLite:
		store, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c, err := client.New(cfg.Client(store))
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("create client: %w", err)
	}

	rc := cache.NewResultCache(store, logging.NewLogger("cache"))
	a := &app{
		cfg:     cfg,
		store:   store,
		client:  c,
		cache:   rc,
		catalog: catalog.New(c, rc, cfg.Season),
		search:  search.New(c, rc),
		closers: []func() error{c.Close, closeStore},
	}

	logging.NewLogger("app").Debug().
		Str("storage", cfg.Storage).
		Int("season", cfg.Season).
		Bool("api_key_set", cfg.APIKey != "").
		Msg("Components ready")
	return a, nil
}

func (a *app) paginationConfig() pagination.Config {
	return pagination.DefaultConfig(a.cfg.Season)
}

// Close releases the client and the store.
func (a *app) Close() error {
	var first error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
