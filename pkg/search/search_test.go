package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Sternrassler/apifootball-client/internal/testutil"
	"github.com/Sternrassler/apifootball-client/pkg/cache"
	"github.com/Sternrassler/apifootball-client/pkg/model"
	"github.com/Sternrassler/apifootball-client/pkg/storage"
	"github.com/rs/zerolog"
)

type fakeSource struct {
	mu         sync.Mutex
	players    []json.RawMessage
	teams      []json.RawMessage
	playersErr error
	teamsErr   error
	calls      int
}

func (f *fakeSource) SearchPlayers(context.Context, string) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.players, f.playersErr
}

func (f *fakeSource) SearchTeams(context.Context, string) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.teams, f.teamsErr
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func raws(records ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(records))
	for i, r := range records {
		out[i] = json.RawMessage(r)
	}
	return out
}

func newTestSearcher(t *testing.T) (*Searcher, *fakeSource, *cache.ResultCache) {
	t.Helper()
	src := &fakeSource{}
	rc := cache.NewResultCache(storage.NewMemoryStore(), zerolog.Nop())
	return New(src, rc), src, rc
}

func ids(players []model.Player) string {
	out := make([]int, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return fmt.Sprint(out)
}

func TestSearch_ShortTerm(t *testing.T) {
	s, src, _ := newTestSearcher(t)

	for _, term := range []string{"", "ab", "  ab  ", "ñé"} {
		res, err := s.Search(context.Background(), term)
		if err != nil {
			t.Fatalf("Search(%q): %v", term, err)
		}
		if !res.Empty() {
			t.Errorf("Search(%q) = %+v, want empty", term, res)
		}
	}
	if n := src.callCount(); n != 0 {
		t.Errorf("source calls = %d, want 0", n)
	}
}

func TestSearch_LocalAndRemote(t *testing.T) {
	s, src, rc := newTestSearcher(t)
	ctx := context.Background()

	_, _ = rc.Put(ctx, cache.AllNationsKey, raws(
		testutil.CountryRecord("Italy", "IT"),
		testutil.CountryRecord("Spain", "ES"),
	))
	_, _ = rc.Put(ctx, cache.TeamPlayersKey(505, 1), raws(
		testutil.PlayerRecord(1, "Lautaro Martinez", 505, "Inter", "7.8", 24),
		testutil.PlayerRecord(2, "Nicolo Barella", 505, "Inter", "7.4", 3),
	))
	// Same player cached under a second scope.
	_, _ = rc.Put(ctx, cache.LeaguePlayersKey(135, 1), raws(
		testutil.PlayerRecord(1, "Lautaro Martinez", 505, "Inter", "7.8", 24),
	))

	src.players = raws(
		testutil.PlayerRecord(1, "Lautaro Martinez (api)", 505, "Inter", "7.8", 24),
		testutil.PlayerRecord(3, "Martin Odegaard", 42, "Arsenal", "7.6", 8),
	)
	src.teams = raws(testutil.TeamRecord(1000, "Martinique", "Martinique", true))

	res, err := s.Search(ctx, "MARTIN")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := ids(res.Players); got != "[1 3]" {
		t.Errorf("players = %s, want [1 3]", got)
	}
	if res.Players[0].Name != "Lautaro Martinez" {
		t.Errorf("local record should win, got %q", res.Players[0].Name)
	}
	if len(res.Teams) != 1 || res.Teams[0].Name != "Martinique" || !res.Teams[0].National {
		t.Errorf("teams = %+v", res.Teams)
	}
	if len(res.Nations) != 0 {
		t.Errorf("nations = %+v, want none", res.Nations)
	}
	if res.FromSession {
		t.Error("first search should not come from session")
	}
}

func TestSearch_NationsFallbackKey(t *testing.T) {
	s, _, rc := newTestSearcher(t)
	ctx := context.Background()

	_, _ = rc.Put(ctx, cache.NationsKey, raws(
		testutil.CountryRecord("Italy", "IT"),
		testutil.CountryRecord("Ivory Coast", "CI"),
	))

	res, err := s.Search(ctx, "ita")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Nations) != 1 || res.Nations[0].Name != "Italy" {
		t.Errorf("nations = %+v, want Italy", res.Nations)
	}
}

func TestSearch_SessionCache(t *testing.T) {
	s, src, _ := newTestSearcher(t)
	ctx := context.Background()

	src.players = raws(testutil.PlayerRecord(7, "Paulo Dybala", 497, "Roma", "7.3", 10))

	first, _ := s.Search(ctx, "Dybala")
	second, err := s.Search(ctx, "  dybala ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !second.FromSession {
		t.Error("repeated search should be answered from session")
	}
	if ids(second.Players) != ids(first.Players) {
		t.Errorf("session players = %s, want %s", ids(second.Players), ids(first.Players))
	}
	if n := src.callCount(); n != 2 {
		t.Errorf("source calls = %d, want 2 (one per remote search)", n)
	}

	s.ClearSession()
	if _, err := s.Search(ctx, "dybala"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if n := src.callCount(); n != 4 {
		t.Errorf("source calls after ClearSession = %d, want 4", n)
	}
}

func TestSearch_RemoteFailureDegrades(t *testing.T) {
	s, src, rc := newTestSearcher(t)
	ctx := context.Background()

	_, _ = rc.Put(ctx, cache.TeamPlayersKey(505, 1), raws(
		testutil.PlayerRecord(1, "Lautaro Martinez", 505, "Inter", "7.8", 24),
	))
	src.playersErr = errors.New("daily API quota exceeded")
	src.teams = raws(testutil.TeamRecord(505, "Inter", "Italy", false))

	res, err := s.Search(ctx, "lautaro")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := ids(res.Players); got != "[1]" {
		t.Errorf("players = %s, want local match [1]", got)
	}
	if len(res.Teams) != 1 {
		t.Errorf("teams = %d, want 1", len(res.Teams))
	}

	// Incomplete answers are not remembered.
	again, _ := s.Search(ctx, "lautaro")
	if again.FromSession {
		t.Error("incomplete result should not be served from session")
	}
}

func TestSearch_Cancelled(t *testing.T) {
	s, _, _ := newTestSearcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Search(ctx, "inter"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSessionKey(t *testing.T) {
	if got := SessionKey("  Lautaro "); got != "search_sess_lautaro" {
		t.Errorf("SessionKey = %q", got)
	}
}

func TestMergePlayers(t *testing.T) {
	base := []model.Player{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	incoming := []model.Player{{ID: 2, Name: "b2"}, {ID: 3, Name: "c"}, {ID: 3, Name: "c2"}}

	got := mergePlayers(base, incoming)
	if ids(got) != "[1 2 3]" {
		t.Fatalf("ids = %s, want [1 2 3]", ids(got))
	}
	if got[1].Name != "b" || got[2].Name != "c" {
		t.Errorf("merge should keep first-seen records, got %+v", got)
	}
}
