package cache

import "testing"

func TestKeys_Format(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"team page", TeamPlayersKey(505, 2), "players_team_505_p2"},
		{"league page", LeaguePlayersKey(135, 1), "players_league_135_p1"},
		{"global segment", GlobalTopKey(39), "players_global_top_39"},
		{"series keeps nation name verbatim", SeriesKey("Côte d'Ivoire"), "cache_series_Côte d'Ivoire"},
		{"teams", TeamsKey(135), "cache_teams_135"},
		{"nations", NationsKey, "cache_nations"},
		{"all nations", AllNationsKey, "all_nations"},
		{"national teams", NationalTeamsKey, "cache_national_teams"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("key = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{TeamPlayersKey(1, 1), "team_players"},
		{LeaguePlayersKey(1, 1), "league_players"},
		{GlobalTopKey(61), "global_top"},
		{"players_other", "players"},
		{NationsKey, "nations"},
		{AllNationsKey, "nations"},
		{NationalTeamsKey, "national_teams"},
		{SeriesKey("Italy"), "series"},
		{TeamsKey(2), "teams"},
		{"api_counter", "other"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := kindOf(tt.key); got != tt.want {
				t.Errorf("kindOf(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
