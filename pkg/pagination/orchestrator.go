package pagination

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/Sternrassler/apifootball-client/pkg/cache"
	"github.com/Sternrassler/apifootball-client/pkg/logging"
	"github.com/Sternrassler/apifootball-client/pkg/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for orchestrated loads.
var (
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apifootball_pagination_loads_total",
		Help: "Total page/segment loads by scope kind and origin",
	}, []string{"kind", "origin"}) // origin: "cache", "network", "dump", "error"

	staleDiscardsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apifootball_pagination_stale_discards_total",
		Help: "Total number of load results discarded because the scope changed meanwhile",
	})
)

// View is a snapshot of an orchestrator.
type View struct {
	Scope         Scope
	Players       []model.Player
	Total         int // accumulated players before filtering
	Loading       bool
	HasMoreRemote bool
	State         State
	Err           error
}

// Empty reports a settled view without players.
func (v View) Empty() bool {
	return len(v.Players) == 0 && !v.Loading
}

// Exhausted reports whether the scope will not load anything more.
func (v View) Exhausted() bool {
	return v.State == StateExhausted
}

// Orchestrator accumulates players for one browsing context at a time,
// resolving pages (team/league) or top-league segments (global) cache first.
//
// Methods are safe for concurrent use. The lock is not held while fetching;
// results that arrive after the scope changed are discarded.
type Orchestrator struct {
	resolver resolver

	mu         sync.Mutex
	scope      Scope
	state      State
	index      int
	hasMore    bool
	firstLoad  bool
	generation uint64
	players    []model.Player
	seen       map[int]struct{}
	err        error
}

// New creates an orchestrator. It starts without a scope; call SetScope.
func New(source Source, rc *cache.ResultCache, cfg Config) *Orchestrator {
	if source == nil {
		panic("source cannot be nil")
	}
	if rc == nil {
		panic("result cache cannot be nil")
	}
	return &Orchestrator{
		resolver: resolver{
			source: source,
			cache:  rc,
			config: cfg.withDefaults(),
			logger: logging.NewLogger("pagination"),
		},
		state: StateInit,
		seen:  make(map[int]struct{}),
	}
}

// SetScope switches to scope, discarding everything accumulated so far, and
// loads the first page or segment. Errors end up in View().Err.
func (o *Orchestrator) SetScope(ctx context.Context, scope Scope) {
	o.mu.Lock()
	o.generation++
	o.scope = scope
	o.state = StateInit
	o.index = scope.startIndex()
	o.hasMore = true
	o.firstLoad = true
	o.players = nil
	o.seen = make(map[int]struct{})
	o.err = nil

	job := o.beginLocked()
	o.mu.Unlock()

	o.run(ctx, job)
}

// LoadMore advances to the next page or segment and loads it. It is a no-op
// returning false while a load is running or when nothing more is available.
func (o *Orchestrator) LoadMore(ctx context.Context) bool {
	o.mu.Lock()
	if o.state == StateLoading || o.state == StateInit || !o.hasMore {
		o.mu.Unlock()
		return false
	}
	o.index++
	job := o.beginLocked()
	o.mu.Unlock()

	o.run(ctx, job)
	return true
}

// View returns the accumulated players whose name contains filter
// (case-insensitive) together with the load state.
func (o *Orchestrator) View(filter string) View {
	o.mu.Lock()
	defer o.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(filter))
	players := make([]model.Player, 0, len(o.players))
	for _, p := range o.players {
		if needle == "" || strings.Contains(strings.ToLower(p.Name), needle) {
			players = append(players, p)
		}
	}

	return View{
		Scope:         o.scope,
		Players:       players,
		Total:         len(o.players),
		Loading:       o.state == StateLoading,
		HasMoreRemote: o.hasMore,
		State:         o.state,
		Err:           o.err,
	}
}

// job captures what one load works on.
type job struct {
	generation uint64
	scope      Scope
	index      int
	firstLoad  bool
}

func (o *Orchestrator) beginLocked() job {
	o.state = StateLoading
	return job{
		generation: o.generation,
		scope:      o.scope,
		index:      o.index,
		firstLoad:  o.firstLoad,
	}
}

// outcome is what a resolved job hands back to the state machine.
type outcome struct {
	records []json.RawMessage
	origin  string
	dump    bool
	hasMore bool
	err     error
}

func (o *Orchestrator) run(ctx context.Context, j job) {
	out := o.resolve(ctx, j)

	o.mu.Lock()
	defer o.mu.Unlock()

	if j.generation != o.generation {
		staleDiscardsTotal.Inc()
		o.resolver.logger.Debug().
			Str("scope", j.scope.String()).
			Int("index", j.index).
			Msg("Discarding result for previous scope")
		return
	}

	loadsTotal.WithLabelValues(j.scope.Kind.String(), out.origin).Inc()

	if out.err != nil {
		o.resolver.logger.Warn().
			Err(out.err).
			Str("scope", j.scope.String()).
			Int("index", j.index).
			Msg("Load failed, stopping pagination for this scope")
		o.err = out.err
		o.hasMore = false
		o.state = StateExhausted
		return
	}

	incoming := model.NormalizePlayers(out.records)
	if j.firstLoad && !out.dump {
		o.players = nil
		o.seen = make(map[int]struct{})
	}
	added := o.mergeLocked(incoming)
	o.firstLoad = false

	o.hasMore = out.hasMore
	if o.hasMore {
		o.state = StateIdle
	} else {
		o.state = StateExhausted
	}

	o.resolver.logger.Debug().
		Str("scope", j.scope.String()).
		Int("index", j.index).
		Str("origin", out.origin).
		Int("added", added).
		Int("total", len(o.players)).
		Bool("has_more", o.hasMore).
		Msg("Load applied")
}

// mergeLocked appends players whose id has not been seen yet, keeping the
// first occurrence.
func (o *Orchestrator) mergeLocked(incoming []model.Player) int {
	added := 0
	for _, p := range incoming {
		if _, dup := o.seen[p.ID]; dup {
			continue
		}
		o.seen[p.ID] = struct{}{}
		o.players = append(o.players, p)
		added++
	}
	return added
}

func (o *Orchestrator) resolve(ctx context.Context, j job) outcome {
	r := &o.resolver

	if j.scope.Kind != KindGlobal {
		records, cached, err := r.page(ctx, j.scope, j.index)
		if err != nil {
			return outcome{origin: "error", err: err}
		}
		// Stop on a short page or at the page ceiling, whichever comes first.
		hasMore := len(records) >= r.config.PageSize && j.index < r.config.PageCeiling
		return outcome{records: records, origin: originOf(cached), hasMore: hasMore}
	}

	if j.index < len(r.config.TopLeagues) {
		league := r.config.TopLeagues[j.index]
		records, cached, err := r.segment(ctx, league.ID)
		if err != nil {
			return outcome{origin: "error", err: err}
		}
		return outcome{records: records, origin: originOf(cached), hasMore: true}
	}

	// All segments consumed: show whatever else is cached, then stop.
	records, err := r.cache.ScanPlayers(ctx)
	if err != nil {
		return outcome{origin: "error", err: err}
	}
	return outcome{records: records, origin: "dump", dump: true, hasMore: false}
}

func originOf(cached bool) string {
	if cached {
		return "cache"
	}
	return "network"
}
