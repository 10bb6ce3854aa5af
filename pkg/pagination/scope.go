package pagination

import "fmt"

// Kind is the browsing context of an Orchestrator.
type Kind int

const (
	// KindTeam pages through one team's squad.
	KindTeam Kind = iota
	// KindLeague pages through one league's players.
	KindLeague
	// KindGlobal walks the top-league segments, then dumps the cache.
	KindGlobal
)

// String returns the kind name used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindTeam:
		return "team"
	case KindLeague:
		return "league"
	case KindGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Scope identifies a browsing context. Two scopes are the same context
// exactly when they compare equal.
type Scope struct {
	Kind Kind
	ID   int
}

// TeamScope browses a team's players.
func TeamScope(teamID int) Scope {
	return Scope{Kind: KindTeam, ID: teamID}
}

// LeagueScope browses a league's players.
func LeagueScope(leagueID int) Scope {
	return Scope{Kind: KindLeague, ID: leagueID}
}

// GlobalScope browses the top players of the configured top leagues.
func GlobalScope() Scope {
	return Scope{Kind: KindGlobal}
}

// String renders the scope, e.g. "league_135".
func (s Scope) String() string {
	if s.Kind == KindGlobal {
		return "global"
	}
	return fmt.Sprintf("%s_%d", s.Kind, s.ID)
}

// startIndex is page 1 for paged scopes and segment 0 for the global scope.
func (s Scope) startIndex() int {
	if s.Kind == KindGlobal {
		return 0
	}
	return 1
}

// State is the orchestrator's position in its load cycle.
type State int

const (
	// StateInit is a fresh context before its first load starts.
	StateInit State = iota
	// StateLoading means a page or segment is being resolved.
	StateLoading
	// StateIdle waits for LoadMore or a new scope.
	StateIdle
	// StateExhausted is terminal for the current scope.
	StateExhausted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateLoading:
		return "loading"
	case StateIdle:
		return "idle"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}
