package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Sternrassler/apifootball-client/pkg/quota"
)

// Resource paths.
const (
	ResourceCountries  = "countries"
	ResourceLeagues    = "leagues"
	ResourceTeams      = "teams"
	ResourcePlayers    = "players"
	ResourceTopScorers = "players/topscorers"
	ResourceStatus     = "status"
)

// Countries lists every nation the provider knows.
func (c *Client) Countries(ctx context.Context) ([]json.RawMessage, error) {
	return c.Fetch(ctx, ResourceCountries, nil)
}

// Leagues lists the competitions of a country (by name).
func (c *Client) Leagues(ctx context.Context, country string) ([]json.RawMessage, error) {
	return c.Fetch(ctx, ResourceLeagues, url.Values{"country": {country}})
}

// Teams lists the teams of a league in a season.
func (c *Client) Teams(ctx context.Context, leagueID, season int) ([]json.RawMessage, error) {
	return c.Fetch(ctx, ResourceTeams, url.Values{
		"league": {strconv.Itoa(leagueID)},
		"season": {strconv.Itoa(season)},
	})
}

// PlayersByTeam returns one page of a team's players.
func (c *Client) PlayersByTeam(ctx context.Context, teamID, season, page int) ([]json.RawMessage, error) {
	return c.Fetch(ctx, ResourcePlayers, url.Values{
		"team":   {strconv.Itoa(teamID)},
		"season": {strconv.Itoa(season)},
		"page":   {strconv.Itoa(page)},
	})
}

// PlayersByLeague returns one page of a league's players.
func (c *Client) PlayersByLeague(ctx context.Context, leagueID, season, page int) ([]json.RawMessage, error) {
	return c.Fetch(ctx, ResourcePlayers, url.Values{
		"league": {strconv.Itoa(leagueID)},
		"season": {strconv.Itoa(season)},
		"page":   {strconv.Itoa(page)},
	})
}

// TopScorers returns a league's top scorers for a season.
func (c *Client) TopScorers(ctx context.Context, leagueID, season int) ([]json.RawMessage, error) {
	return c.Fetch(ctx, ResourceTopScorers, url.Values{
		"league": {strconv.Itoa(leagueID)},
		"season": {strconv.Itoa(season)},
	})
}

// SearchPlayers runs the provider's free-text player search.
func (c *Client) SearchPlayers(ctx context.Context, term string) ([]json.RawMessage, error) {
	return c.Fetch(ctx, ResourcePlayers, url.Values{"search": {term}})
}

// SearchTeams runs the provider's free-text team search.
func (c *Client) SearchTeams(ctx context.Context, term string) ([]json.RawMessage, error) {
	return c.Fetch(ctx, ResourceTeams, url.Values{"search": {term}})
}

// AccountStatus is the payload of the status endpoint.
type AccountStatus struct {
	Account struct {
		FirstName string `json:"firstname"`
		LastName  string `json:"lastname"`
		Email     string `json:"email"`
	} `json:"account"`
	Subscription struct {
		Plan   string `json:"plan"`
		End    string `json:"end"`
		Active bool   `json:"active"`
	} `json:"subscription"`
	Requests struct {
		Current  int `json:"current"`
		LimitDay int `json:"limit_day"`
	} `json:"requests"`
}

// Status probes the account. The provider does not bill this endpoint, so
// it bypasses the local quota gate and is not counted.
func (c *Client) Status(ctx context.Context) (*AccountStatus, error) {
	records, err := c.dedupe(ctx, ResourceStatus, ResourceStatus, func() ([]json.RawMessage, error) {
		env, err := c.do(ctx, ResourceStatus, nil)
		if err != nil {
			return nil, err
		}
		if err := env.embeddedError(); err != nil {
			return nil, err
		}
		return env.records()
	})
	requestsTotal.WithLabelValues(ResourceStatus, outcomeOf(err)).Inc()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &APIError{Message: "status endpoint returned no account data"}
	}

	var status AccountStatus
	if err := json.Unmarshal(records[0], &status); err != nil {
		return nil, fmt.Errorf("decode account status: %w", err)
	}
	return &status, nil
}

// SyncUsage reconciles the local quota counter with the provider's count.
func (c *Client) SyncUsage(ctx context.Context) (quota.Usage, error) {
	status, err := c.Status(ctx)
	if err != nil {
		return c.quota.Usage(ctx), fmt.Errorf("fetch account status: %w", err)
	}
	return c.quota.SyncWithRemote(ctx, status.Requests.Current)
}
