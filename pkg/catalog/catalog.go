// Package catalog serves the reference data used to navigate to a player
// list: nations, their leagues, a league's teams and the main national sides.
//
// Everything is resolved cache first. Reference entries never expire and are
// not touched by cache.ResultCache.ClearPlayers.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Sternrassler/apifootball-client/pkg/cache"
	"github.com/Sternrassler/apifootball-client/pkg/logging"
	"github.com/Sternrassler/apifootball-client/pkg/model"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrEmptyNations is returned when the provider answers the countries
// request with an empty list.
var ErrEmptyNations = errors.New("countries endpoint returned an empty list")

// DefaultNationalTeamNations are searched by NationalTeams.
var DefaultNationalTeamNations = []string{
	"Italy", "France", "Argentina", "Brazil", "Spain", "Germany", "England", "Portugal",
}

// Source fetches raw reference records. *client.Client implements it.
type Source interface {
	Countries(ctx context.Context) ([]json.RawMessage, error)
	Leagues(ctx context.Context, country string) ([]json.RawMessage, error)
	Teams(ctx context.Context, leagueID, season int) ([]json.RawMessage, error)
	SearchTeams(ctx context.Context, term string) ([]json.RawMessage, error)
}

// Catalog resolves reference data.
type Catalog struct {
	source  Source
	cache   *cache.ResultCache
	season  int
	nations []string
	logger  zerolog.Logger
}

// New creates a catalog. season is used for league team lists.
func New(source Source, rc *cache.ResultCache, season int) *Catalog {
	if source == nil {
		panic("source cannot be nil")
	}
	if rc == nil {
		panic("result cache cannot be nil")
	}
	return &Catalog{
		source:  source,
		cache:   rc,
		season:  season,
		nations: DefaultNationalTeamNations,
		logger:  logging.NewLogger("catalog"),
	}
}

// Nations returns every nation. A fetched list is stored under both
// cache.NationsKey and cache.AllNationsKey; the latter feeds local search.
func (c *Catalog) Nations(ctx context.Context) ([]model.Nation, error) {
	if records, ok := c.cache.Get(ctx, cache.NationsKey); ok {
		return decodeNations(records), nil
	}

	records, err := c.source.Countries(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch nations: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyNations
	}

	c.store(ctx, cache.NationsKey, records)
	c.store(ctx, cache.AllNationsKey, records)

	c.logger.Info().Int("nations", len(records)).Msg("Nations loaded from API")
	return decodeNations(records), nil
}

// Leagues returns the competitions of nation (by name).
func (c *Catalog) Leagues(ctx context.Context, nation string) ([]model.League, error) {
	key := cache.SeriesKey(nation)
	records, ok := c.cache.Get(ctx, key)
	if !ok {
		var err error
		records, err = c.source.Leagues(ctx, nation)
		if err != nil {
			return nil, fmt.Errorf("fetch leagues of %s: %w", nation, err)
		}
		c.store(ctx, key, records)
	}

	leagues := make([]model.League, 0, len(records))
	for _, raw := range records {
		l, err := model.DecodeLeague(raw)
		if err != nil {
			c.logger.Debug().Err(err).Str("nation", nation).Msg("Skipping malformed league record")
			continue
		}
		leagues = append(leagues, l)
	}
	return leagues, nil
}

// Teams returns the teams of a league in the configured season.
func (c *Catalog) Teams(ctx context.Context, leagueID int) ([]model.Team, error) {
	key := cache.TeamsKey(leagueID)
	records, ok := c.cache.Get(ctx, key)
	if !ok {
		var err error
		records, err = c.source.Teams(ctx, leagueID, c.season)
		if err != nil {
			return nil, fmt.Errorf("fetch teams of league %d: %w", leagueID, err)
		}
		c.store(ctx, key, records)
	}
	return model.DecodeTeams(records), nil
}

// NationalTeams searches the main football nations in parallel and keeps the
// national sides, one per id in nation order. The result is cached in its
// normalized form.
func (c *Catalog) NationalTeams(ctx context.Context) ([]model.Team, error) {
	if records, ok := c.cache.Get(ctx, cache.NationalTeamsKey); ok {
		return model.DecodeTeams(records), nil
	}

	results := make([][]json.RawMessage, len(c.nations))
	g, gctx := errgroup.WithContext(ctx)
	for i, nation := range c.nations {
		g.Go(func() error {
			records, err := c.source.SearchTeams(gctx, nation)
			if err != nil {
				return fmt.Errorf("search national team %s: %w", nation, err)
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[int]struct{})
	var teams []model.Team
	for _, records := range results {
		for _, t := range model.DecodeTeams(records) {
			if !t.National {
				continue
			}
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			teams = append(teams, t)
		}
	}

	if _, err := c.cache.PutValue(ctx, cache.NationalTeamsKey, teams); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to cache national teams")
	}

	c.logger.Info().Int("teams", len(teams)).Msg("National teams loaded from API")
	return teams, nil
}

func (c *Catalog) store(ctx context.Context, key string, records []json.RawMessage) {
	if _, err := c.cache.Put(ctx, key, records); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache reference data")
	}
}

func decodeNations(records []json.RawMessage) []model.Nation {
	nations := make([]model.Nation, 0, len(records))
	for _, raw := range records {
		if n, err := model.DecodeNation(raw); err == nil && n.Name != "" {
			nations = append(nations, n)
		}
	}
	return nations
}
