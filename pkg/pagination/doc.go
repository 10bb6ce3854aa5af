// Package pagination accumulates player lists across pages and segments.
//
// An Orchestrator follows one browsing context (Scope) at a time:
//
//   - team and league scopes walk pages 1..3 of the players endpoint and stop
//     early when a page holds fewer than 20 records
//   - the global scope walks the top-scorer lists of the top leagues
//     (39, 135, 140, 78, 61), each capped at 20, and finally appends every
//     player list already held in the cache
//
// Every page and segment is resolved cache first. Fetched payloads are stored
// under the player keys of package cache, so a later visit of the same scope
// costs no quota.
//
// Example usage:
//
//	orch := pagination.New(apiClient, resultCache, pagination.DefaultConfig(2024))
//	orch.SetScope(ctx, pagination.LeagueScope(135))
//	for orch.LoadMore(ctx) {
//	}
//	view := orch.View("lau")
//
// Results of a load that finishes after the scope changed are discarded.
// A failed load ends the scope (State Exhausted) and is reported in View.Err;
// players accumulated before the failure stay visible.
//
// A Warmer resolves the global segments in parallel ahead of time.
package pagination
