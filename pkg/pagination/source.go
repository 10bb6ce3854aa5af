package pagination

import (
	"context"
	"encoding/json"

	"github.com/Sternrassler/apifootball-client/pkg/cache"
	"github.com/rs/zerolog"
)

// Source fetches raw player records. *client.Client implements it.
type Source interface {
	PlayersByTeam(ctx context.Context, teamID, season, page int) ([]json.RawMessage, error)
	PlayersByLeague(ctx context.Context, leagueID, season, page int) ([]json.RawMessage, error)
	TopScorers(ctx context.Context, leagueID, season int) ([]json.RawMessage, error)
}

// TopLeague is one segment of the global view.
type TopLeague struct {
	ID   int
	Name string
}

// DefaultTopLeagues are walked in this order by the global scope.
var DefaultTopLeagues = []TopLeague{
	{ID: 39, Name: "Premier League"},
	{ID: 135, Name: "Serie A"},
	{ID: 140, Name: "La Liga"},
	{ID: 78, Name: "Bundesliga"},
	{ID: 61, Name: "Ligue 1"},
}

const (
	// DefaultPageSize is the provider's page size for player lists.
	DefaultPageSize = 20

	// DefaultPageCeiling is the last page the free plan serves.
	DefaultPageCeiling = 3

	// DefaultTopScorersCap limits each global segment.
	DefaultTopScorersCap = 20
)

// Config holds orchestrator configuration.
type Config struct {
	Season        int
	PageSize      int
	PageCeiling   int
	TopLeagues    []TopLeague
	TopScorersCap int
}

// DefaultConfig returns the free-plan configuration for season.
func DefaultConfig(season int) Config {
	return Config{
		Season:        season,
		PageSize:      DefaultPageSize,
		PageCeiling:   DefaultPageCeiling,
		TopLeagues:    DefaultTopLeagues,
		TopScorersCap: DefaultTopScorersCap,
	}
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PageCeiling <= 0 {
		c.PageCeiling = DefaultPageCeiling
	}
	if c.TopLeagues == nil {
		c.TopLeagues = DefaultTopLeagues
	}
	if c.TopScorersCap <= 0 {
		c.TopScorersCap = DefaultTopScorersCap
	}
	return c
}

// resolver turns a page or segment into raw records, cache first.
type resolver struct {
	source Source
	cache  *cache.ResultCache
	config Config
	logger zerolog.Logger
}

// page resolves one page of a team or league scope.
func (r *resolver) page(ctx context.Context, scope Scope, page int) ([]json.RawMessage, bool, error) {
	var key string
	if scope.Kind == KindTeam {
		key = cache.TeamPlayersKey(scope.ID, page)
	} else {
		key = cache.LeaguePlayersKey(scope.ID, page)
	}

	if records, ok := r.cache.Get(ctx, key); ok {
		return records, true, nil
	}

	var (
		records []json.RawMessage
		err     error
	)
	if scope.Kind == KindTeam {
		records, err = r.source.PlayersByTeam(ctx, scope.ID, r.config.Season, page)
	} else {
		records, err = r.source.PlayersByLeague(ctx, scope.ID, r.config.Season, page)
	}
	if err != nil {
		return nil, false, err
	}

	if len(records) == 0 {
		r.logger.Warn().
			Str("scope", scope.String()).
			Int("page", page).
			Msg("API returned empty page")
	}
	r.store(ctx, key, records)
	return records, false, nil
}

// segment resolves one top-league segment of the global scope.
func (r *resolver) segment(ctx context.Context, leagueID int) ([]json.RawMessage, bool, error) {
	key := cache.GlobalTopKey(leagueID)
	if records, ok := r.cache.Get(ctx, key); ok {
		return records, true, nil
	}

	records, err := r.source.TopScorers(ctx, leagueID, r.config.Season)
	if err != nil {
		return nil, false, err
	}
	if len(records) > r.config.TopScorersCap {
		records = records[:r.config.TopScorersCap]
	}
	r.store(ctx, key, records)
	return records, false, nil
}

// store writes a fetched payload. Write failures are logged and otherwise
// ignored.
func (r *resolver) store(ctx context.Context, key string, records []json.RawMessage) {
	if _, err := r.cache.Put(ctx, key, records); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache player page")
	}
}
