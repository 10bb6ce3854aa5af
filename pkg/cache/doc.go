// Package cache persists API-Football result lists so repeated navigation
// does not spend daily quota twice.
//
// Every entry is a JSON array of raw provider records stored under a
// human-readable key in a storage.Store:
//
//   - players_team_{teamId}_p{page}      one page of a team's squad
//   - players_league_{leagueId}_p{page}  one page of a league's players
//   - players_global_top_{leagueId}      one top-league segment
//   - cache_nations, all_nations         the countries list
//   - cache_series_{nation}              a nation's leagues
//   - cache_teams_{leagueId}             a league's teams
//   - cache_national_teams               the curated national sides
//
// The layout is shared with the browser front-end, so key formats must not
// change. Entries have no TTL. Empty payloads are never written, and a
// malformed entry is removed the first time it is read.
//
// # Basic Usage
//
//	rc := cache.NewResultCache(store, logger)
//
//	key := cache.LeaguePlayersKey(135, 1)
//	if records, ok := rc.Get(ctx, key); ok {
//		return records
//	}
//	records, err := apiClient.PlayersByLeague(ctx, 135, 2024, 1)
//	if err != nil {
//		return err
//	}
//	_, _ = rc.Put(ctx, key, records)
//
// # Metrics
//
//   - apifootball_cache_hits_total{kind}
//   - apifootball_cache_misses_total{kind}
//   - apifootball_cache_writes_total{kind}
//   - apifootball_cache_skipped_writes_total
//   - apifootball_cache_purged_total
//   - apifootball_cache_errors_total{operation}
package cache
