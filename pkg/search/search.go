// Package search implements the hybrid player/team/nation search: what the
// cache already holds is scanned locally, the provider is asked in parallel,
// and the merged result is kept for the rest of the session.
package search

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Sternrassler/apifootball-client/pkg/cache"
	"github.com/Sternrassler/apifootball-client/pkg/logging"
	"github.com/Sternrassler/apifootball-client/pkg/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MinTermLength is the shortest term that triggers a search.
const MinTermLength = 3

// SessionKeyPrefix prefixes session cache keys.
const SessionKeyPrefix = "search_sess_"

var searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "apifootball_search_total",
	Help: "Total searches by how they were answered",
}, []string{"origin"}) // origin: "short", "session", "fresh"

// Source runs the provider's free-text searches. *client.Client implements it.
type Source interface {
	SearchPlayers(ctx context.Context, term string) ([]json.RawMessage, error)
	SearchTeams(ctx context.Context, term string) ([]json.RawMessage, error)
}

// Result is the aggregated answer to a search.
type Result struct {
	Term        string         `json:"term"`
	Nations     []model.Nation `json:"nations"`
	Teams       []model.Team   `json:"teams"`
	Players     []model.Player `json:"players"`
	FromSession bool           `json:"fromSession"`
}

// Empty reports whether nothing was found.
func (r Result) Empty() bool {
	return len(r.Nations) == 0 && len(r.Teams) == 0 && len(r.Players) == 0
}

// Searcher answers searches. It is safe for concurrent use.
type Searcher struct {
	source Source
	cache  *cache.ResultCache
	logger zerolog.Logger

	mu      sync.RWMutex
	session map[string]Result
}

// New creates a searcher.
func New(source Source, rc *cache.ResultCache) *Searcher {
	if source == nil {
		panic("source cannot be nil")
	}
	if rc == nil {
		panic("result cache cannot be nil")
	}
	return &Searcher{
		source:  source,
		cache:   rc,
		logger:  logging.NewLogger("search"),
		session: make(map[string]Result),
	}
}

// SessionKey returns the session cache key of term.
func SessionKey(term string) string {
	return SessionKeyPrefix + strings.ToLower(strings.TrimSpace(term))
}

// Search looks term up. Terms shorter than MinTermLength yield an empty
// result without any lookup. Remote failures degrade to local results; the
// only error returned is the context's.
func (s *Searcher) Search(ctx context.Context, term string) (Result, error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < MinTermLength {
		searchesTotal.WithLabelValues("short").Inc()
		return Result{Term: term}, nil
	}

	key := SessionKey(term)
	s.mu.RLock()
	cached, ok := s.session[key]
	s.mu.RUnlock()
	if ok {
		searchesTotal.WithLabelValues("session").Inc()
		cached.FromSession = true
		return cached, nil
	}

	needle := strings.ToLower(term)
	res := Result{
		Term:    term,
		Nations: s.localNations(ctx, needle),
		Players: s.localPlayers(ctx, needle),
	}

	remotePlayers, remoteTeams, complete := s.remote(ctx, term)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res.Players = mergePlayers(res.Players, model.NormalizePlayers(remotePlayers))
	res.Teams = model.DecodeTeams(remoteTeams)

	// Incomplete answers are not remembered so a later search can retry.
	if complete {
		s.mu.Lock()
		s.session[key] = res
		s.mu.Unlock()
	}

	searchesTotal.WithLabelValues("fresh").Inc()
	s.logger.Debug().
		Str("term", term).
		Int("nations", len(res.Nations)).
		Int("teams", len(res.Teams)).
		Int("players", len(res.Players)).
		Bool("complete", complete).
		Msg("Search answered")
	return res, nil
}

// ClearSession forgets every remembered search.
func (s *Searcher) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = make(map[string]Result)
}

func (s *Searcher) localNations(ctx context.Context, needle string) []model.Nation {
	records, ok := s.cache.Get(ctx, cache.AllNationsKey)
	if !ok {
		records, ok = s.cache.Get(ctx, cache.NationsKey)
	}
	if !ok {
		return nil
	}

	var nations []model.Nation
	for _, raw := range records {
		n, err := model.DecodeNation(raw)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(n.Name), needle) {
			nations = append(nations, n)
		}
	}
	return nations
}

func (s *Searcher) localPlayers(ctx context.Context, needle string) []model.Player {
	records, err := s.cache.ScanPlayers(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Local player scan failed")
		return nil
	}

	var matches []model.Player
	for _, p := range model.NormalizePlayers(records) {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			matches = append(matches, p)
		}
	}
	return mergePlayers(nil, matches)
}

// remote runs both provider searches in parallel. A failing search counts
// as an empty answer; complete is false when either failed.
func (s *Searcher) remote(ctx context.Context, term string) (players, teams []json.RawMessage, complete bool) {
	var g errgroup.Group
	var playersErr, teamsErr error

	g.Go(func() error {
		players, playersErr = s.source.SearchPlayers(ctx, term)
		return nil
	})
	g.Go(func() error {
		teams, teamsErr = s.source.SearchTeams(ctx, term)
		return nil
	})
	_ = g.Wait()

	if playersErr != nil {
		s.logger.Warn().Err(playersErr).Str("term", term).Msg("Remote player search failed")
		players = nil
	}
	if teamsErr != nil {
		s.logger.Warn().Err(teamsErr).Str("term", term).Msg("Remote team search failed")
		teams = nil
	}
	return players, teams, playersErr == nil && teamsErr == nil
}

// mergePlayers appends incoming to base, keeping the first player per id.
func mergePlayers(base, incoming []model.Player) []model.Player {
	seen := make(map[int]struct{}, len(base)+len(incoming))
	out := make([]model.Player, 0, len(base)+len(incoming))
	for _, list := range [][]model.Player{base, incoming} {
		for _, p := range list {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
