package cache

import (
	"fmt"
	"strings"
)

// PlayersPrefix is shared by every player-list key. ClearPlayers and the
// global cache dump operate on exactly this prefix.
const PlayersPrefix = "players_"

// Reference data keys.
const (
	NationsKey       = "cache_nations"
	AllNationsKey    = "all_nations"
	NationalTeamsKey = "cache_national_teams"
)

// TeamPlayersKey is the key for one page of a team's squad.
//
// Format: players_team_{teamID}_p{page}
func TeamPlayersKey(teamID, page int) string {
	return fmt.Sprintf("players_team_%d_p%d", teamID, page)
}

// LeaguePlayersKey is the key for one page of a league's players.
//
// Format: players_league_{leagueID}_p{page}
func LeaguePlayersKey(leagueID, page int) string {
	return fmt.Sprintf("players_league_%d_p%d", leagueID, page)
}

// GlobalTopKey is the key for one top-league segment of the global view.
//
// Format: players_global_top_{leagueID}
func GlobalTopKey(leagueID int) string {
	return fmt.Sprintf("players_global_top_%d", leagueID)
}

// SeriesKey is the key for a nation's leagues. The nation name is used
// verbatim.
func SeriesKey(nation string) string {
	return "cache_series_" + nation
}

// TeamsKey is the key for a league's teams.
func TeamsKey(leagueID int) string {
	return fmt.Sprintf("cache_teams_%d", leagueID)
}

// kindOf maps a key to a low-cardinality metric label.
func kindOf(key string) string {
	switch {
	case strings.HasPrefix(key, "players_team_"):
		return "team_players"
	case strings.HasPrefix(key, "players_league_"):
		return "league_players"
	case strings.HasPrefix(key, "players_global_top_"):
		return "global_top"
	case strings.HasPrefix(key, PlayersPrefix):
		return "players"
	case key == NationsKey || key == AllNationsKey:
		return "nations"
	case key == NationalTeamsKey:
		return "national_teams"
	case strings.HasPrefix(key, "cache_series_"):
		return "series"
	case strings.HasPrefix(key, "cache_teams_"):
		return "teams"
	default:
		return "other"
	}
}
