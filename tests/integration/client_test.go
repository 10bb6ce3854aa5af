//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/apifootball-client/internal/testutil"
	"github.com/Sternrassler/apifootball-client/pkg/cache"
	"github.com/Sternrassler/apifootball-client/pkg/client"
	"github.com/Sternrassler/apifootball-client/pkg/pagination"
	"github.com/Sternrassler/apifootball-client/pkg/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const season = 2023

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func newClient(t *testing.T, store storage.Store, mock *testutil.MockAPI, dailyLimit int) *client.Client {
	t.Helper()

	cfg := client.DefaultConfig(store, "test-key")
	cfg.BaseURL = mock.URL()
	cfg.RequestsPerMinute = 0
	cfg.RetryBackoff = 10 * time.Millisecond
	cfg.Season = season
	if dailyLimit > 0 {
		cfg.DailyLimit = dailyLimit
	}

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// TestFullRequestFlow covers quota gate, network, cache write and the cached
// revisit from a second process sharing the same Redis.
func TestFullRequestFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetSequence("players",
		testutil.NewEnvelopeResponse("players", testutil.PlayerRecords(1, 20)...),
		testutil.NewEnvelopeResponse("players", testutil.PlayerRecords(21, 8)...),
	)

	ctx := context.Background()
	store := storage.NewRedisStore(redisClient)
	c := newClient(t, store, mock, 0)
	rc := cache.NewResultCache(store, zerolog.Nop())

	orch := pagination.New(c, rc, pagination.DefaultConfig(season))
	orch.SetScope(ctx, pagination.LeagueScope(135))
	orch.LoadMore(ctx)

	view := orch.View("")
	if view.Total != 28 || !view.Exhausted() {
		t.Fatalf("view = total %d state %s, want 28 exhausted", view.Total, view.State)
	}
	if usage := c.Usage(ctx); usage.Used != 2 {
		t.Errorf("used = %d, want 2", usage.Used)
	}

	// A second client on the same Redis sees the counter and the cache.
	c2 := newClient(t, store, mock, 0)
	if usage := c2.Usage(ctx); usage.Used != 2 {
		t.Errorf("second client used = %d, want 2", usage.Used)
	}

	orch2 := pagination.New(c2, cache.NewResultCache(store, zerolog.Nop()), pagination.DefaultConfig(season))
	orch2.SetScope(ctx, pagination.LeagueScope(135))
	orch2.LoadMore(ctx)

	if got := orch2.View("").Total; got != 28 {
		t.Errorf("cached total = %d, want 28", got)
	}
	if n := mock.PathCount("players"); n != 2 {
		t.Errorf("upstream calls = %d, want 2", n)
	}
}

func TestQuotaBlock(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("countries", testutil.NewEnvelopeResponse("countries",
		testutil.CountryRecord("Italy", "IT")))

	ctx := context.Background()
	c := newClient(t, storage.NewRedisStore(redisClient), mock, 2)

	for i := 0; i < 2; i++ {
		if _, err := c.Countries(ctx); err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
	}

	_, err := c.Countries(ctx)
	if !client.IsQuotaExceeded(err) {
		t.Fatalf("err = %v, want quota exceeded", err)
	}
	if n := mock.PathCount("countries"); n != 2 {
		t.Errorf("upstream calls = %d, want 2", n)
	}

	// Status does not spend quota and still works.
	mock.SetResponse("status", testutil.NewStatusResponse(2, 100))
	if _, err := c.SyncUsage(ctx); err != nil {
		t.Errorf("SyncUsage while exhausted: %v", err)
	}
}

func TestRetryRateLimit(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetSequence("countries",
		testutil.NewRateLimitResponse(),
		testutil.NewEnvelopeResponse("countries", testutil.CountryRecord("Italy", "IT")),
	)

	ctx := context.Background()
	c := newClient(t, storage.NewRedisStore(redisClient), mock, 0)

	records, err := c.Countries(ctx)
	if err != nil {
		t.Fatalf("Countries: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want 1", len(records))
	}
	if n := mock.PathCount("countries"); n != 2 {
		t.Errorf("upstream calls = %d, want 2", n)
	}
	// Only the successful attempt counts.
	if usage := c.Usage(ctx); usage.Used != 1 {
		t.Errorf("used = %d, want 1", usage.Used)
	}
}

func TestConcurrentRequestsShareOneCall(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	resp := testutil.NewEnvelopeResponse("players", testutil.PlayerRecords(1, 5)...)
	resp.Delay = 200 * time.Millisecond
	mock.SetResponse("players", resp)

	ctx := context.Background()
	c := newClient(t, storage.NewRedisStore(redisClient), mock, 0)

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, err := c.PlayersByTeam(ctx, 505, season, 1)
			if err == nil && len(records) != 5 {
				t.Errorf("records = %d, want 5", len(records))
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("PlayersByTeam: %v", err)
		}
	}
	if n := mock.PathCount("players"); n != 1 {
		t.Errorf("upstream calls = %d, want 1", n)
	}
	if usage := c.Usage(ctx); usage.Used != 1 {
		t.Errorf("used = %d, want 1", usage.Used)
	}
}

func TestClearPlayers(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	store := storage.NewRedisStore(redisClient)
	rc := cache.NewResultCache(store, zerolog.Nop())

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("players", testutil.NewEnvelopeResponse("players", testutil.PlayerRecords(1, 3)...))
	mock.SetResponse("players/topscorers", testutil.NewEnvelopeResponse("players/topscorers", testutil.PlayerRecords(100, 2)...))

	c := newClient(t, store, mock, 0)
	cfg := pagination.DefaultConfig(season)
	if _, err := pagination.NewWarmer(c, rc, cfg, pagination.DefaultWarmConfig()).WarmGlobal(ctx); err != nil {
		t.Fatalf("WarmGlobal: %v", err)
	}
	orch := pagination.New(c, rc, cfg)
	orch.SetScope(ctx, pagination.TeamScope(505))

	if _, err := rc.PutValue(ctx, cache.NationsKey, []map[string]string{{"name": "Italy"}}); err != nil {
		t.Fatalf("PutValue: %v", err)
	}

	scanned, err := rc.ScanPlayers(ctx)
	if err != nil {
		t.Fatalf("ScanPlayers: %v", err)
	}
	// Five segments of two plus one team page of three.
	if want := len(cfg.TopLeagues)*2 + 3; len(scanned) != want {
		t.Errorf("scanned = %d, want %d", len(scanned), want)
	}

	removed, err := rc.ClearPlayers(ctx)
	if err != nil {
		t.Fatalf("ClearPlayers: %v", err)
	}
	if want := len(cfg.TopLeagues) + 1; removed != want {
		t.Errorf("removed = %d, want %d", removed, want)
	}

	keys, err := store.Keys(ctx, "")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	for _, k := range keys {
		if k == cache.NationsKey {
			return
		}
	}
	t.Errorf("nations key missing after clear, keys = %v", keys)
}
