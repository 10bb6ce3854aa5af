package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/apifootball-client/pkg/cache"
	"github.com/Sternrassler/apifootball-client/pkg/catalog"
	"github.com/Sternrassler/apifootball-client/pkg/client"
	"github.com/Sternrassler/apifootball-client/pkg/logging"
	"github.com/Sternrassler/apifootball-client/pkg/model"
	"github.com/Sternrassler/apifootball-client/pkg/pagination"
	"github.com/Sternrassler/apifootball-client/pkg/quota"
	"github.com/Sternrassler/apifootball-client/pkg/search"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type handler struct {
	client   *client.Client
	cache    *cache.ResultCache
	catalog  *catalog.Catalog
	search   *search.Searcher
	paginate pagination.Config
	logger   zerolog.Logger
}

func newHandler(svc Services) *handler {
	return &handler{
		client:   svc.Client,
		cache:    svc.Cache,
		catalog:  svc.Catalog,
		search:   svc.Search,
		paginate: svc.Paginate,
		logger:   logging.NewLogger("httpapi"),
	}
}

// Health returns basic health status.
func (h *handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetConfig reports the provider base URL and whether a key is configured.
func (h *handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.client.Config())
}

type usageResponse struct {
	quota.Usage
	NearLimit bool   `json:"nearLimit"`
	Exhausted bool   `json:"exhausted"`
	Error     string `json:"error,omitempty"`
}

func usageBody(u quota.Usage) usageResponse {
	return usageResponse{Usage: u, NearLimit: u.NearLimit(), Exhausted: u.Exhausted()}
}

// GetUsage returns today's quota usage.
func (h *handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, usageBody(h.client.Usage(r.Context())))
}

// SyncUsage reconciles the local counter with the provider's.
func (h *handler) SyncUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.client.SyncUsage(r.Context())
	if err != nil {
		body := usageBody(usage)
		body.Error = err.Error()
		writeJSON(w, statusOf(err), body)
		return
	}
	writeJSON(w, http.StatusOK, usageBody(usage))
}

// ResetUsage zeroes the local counter.
func (h *handler) ResetUsage(w http.ResponseWriter, r *http.Request) {
	if err := h.client.ResetUsage(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, usageBody(h.client.Usage(r.Context())))
}

// ClearPlayers drops every cached player list and the search session.
func (h *handler) ClearPlayers(w http.ResponseWriter, r *http.Request) {
	removed, err := h.cache.ClearPlayers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.search.ClearSession()
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// GetNations lists every nation.
func (h *handler) GetNations(w http.ResponseWriter, r *http.Request) {
	nations, err := h.catalog.Nations(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nations)
}

// GetLeagues lists the leagues of a nation.
func (h *handler) GetLeagues(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	leagues, err := h.catalog.Leagues(r.Context(), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(leagues))
}

// GetTeams lists the teams of a league.
func (h *handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("league id must be a positive integer"))
		return
	}
	teams, err := h.catalog.Teams(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(teams))
}

// GetNationalTeams lists the main national sides.
func (h *handler) GetNationalTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.catalog.NationalTeams(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(teams))
}

type playersResponse struct {
	Scope   string         `json:"scope"`
	State   string         `json:"state"`
	HasMore bool           `json:"hasMore"`
	Total   int            `json:"total"`
	Players []model.Player `json:"players"`
	Error   string         `json:"error,omitempty"`
}

// GetPlayers browses a scope. Query: team=ID or league=ID (neither means
// the global scope), pages=N loads, q=name filter.
func (h *handler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	scope := pagination.GlobalScope()
	maxPages := len(h.topLeagues()) + 1
	switch {
	case query.Get("team") != "":
		id, err := strconv.Atoi(query.Get("team"))
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("team must be a positive integer"))
			return
		}
		scope, maxPages = pagination.TeamScope(id), h.pageCeiling()
	case query.Get("league") != "":
		id, err := strconv.Atoi(query.Get("league"))
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("league must be a positive integer"))
			return
		}
		scope, maxPages = pagination.LeagueScope(id), h.pageCeiling()
	}

	pages := 1
	if raw := query.Get("pages"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, errors.New("pages must be a positive integer"))
			return
		}
		pages = min(n, maxPages)
	}

	orch := pagination.New(h.client, h.cache, h.paginate)
	orch.SetScope(r.Context(), scope)
	for loaded := 1; loaded < pages && orch.LoadMore(r.Context()); loaded++ {
	}

	view := orch.View(query.Get("q"))
	body := playersResponse{
		Scope:   view.Scope.String(),
		State:   view.State.String(),
		HasMore: view.HasMoreRemote,
		Total:   view.Total,
		Players: orEmpty(view.Players),
	}
	status := http.StatusOK
	if view.Err != nil {
		body.Error = view.Err.Error()
		if view.Total == 0 {
			status = statusOf(view.Err)
		}
	}
	writeJSON(w, status, body)
}

// Search runs the hybrid search for q.
func (h *handler) Search(w http.ResponseWriter, r *http.Request) {
	res, err := h.search.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res.Nations = orEmpty(res.Nations)
	res.Teams = orEmpty(res.Teams)
	res.Players = orEmpty(res.Players)
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) topLeagues() []pagination.TopLeague {
	if h.paginate.TopLeagues != nil {
		return h.paginate.TopLeagues
	}
	return pagination.DefaultTopLeagues
}

func (h *handler) pageCeiling() int {
	if h.paginate.PageCeiling > 0 {
		return h.paginate.PageCeiling
	}
	return pagination.DefaultPageCeiling
}

// statusOf maps a service error to an HTTP status.
func statusOf(err error) int {
	var transportErr *client.TransportError
	switch {
	case client.IsQuotaExceeded(err):
		return http.StatusTooManyRequests
	case errors.Is(err, client.ErrRateLimited):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, client.ErrContextCancelled):
		return http.StatusGatewayTimeout
	case errors.Is(err, catalog.ErrEmptyNations):
		return http.StatusBadGateway
	case errors.As(err, &transportErr):
		return http.StatusBadGateway
	default:
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// fail logs a service error and writes it with the mapped status.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	event := h.logger.Warn()
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		event = h.logger.Error()
	}
	event.Err(err).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("Request failed")
	writeError(w, status, err)
}
