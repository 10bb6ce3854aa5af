// Package httpapi exposes the client, quota tracker, catalog, orchestrator
// and search over a small JSON API for the browser front-end.
package httpapi

import (
	"net/http"
	"time"

	"github.com/Sternrassler/apifootball-client/pkg/cache"
	"github.com/Sternrassler/apifootball-client/pkg/catalog"
	"github.com/Sternrassler/apifootball-client/pkg/client"
	"github.com/Sternrassler/apifootball-client/pkg/metrics"
	"github.com/Sternrassler/apifootball-client/pkg/pagination"
	"github.com/Sternrassler/apifootball-client/pkg/search"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
)

// Services are the components the API is served from.
type Services struct {
	Client   *client.Client
	Cache    *cache.ResultCache
	Catalog  *catalog.Catalog
	Search   *search.Searcher
	Paginate pagination.Config
}

// Options configures the router.
type Options struct {
	// CORSOrigins lists the origins allowed to call the API.
	CORSOrigins []string
	// RequestTimeout bounds every request, provider retries included.
	RequestTimeout time.Duration
}

// NewRouter creates the chi router with middleware and routes.
func NewRouter(svc Services, opts Options) *chi.Mux {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}

	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(Instrument)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	c := corslib.New(corslib.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	h := newHandler(svc)

	// --- Routes ---
	r.Get("/health", h.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", h.GetConfig)

		r.Route("/usage", func(r chi.Router) {
			r.Get("/", h.GetUsage)
			r.Post("/sync", h.SyncUsage)
			r.Post("/reset", h.ResetUsage)
		})

		r.Delete("/cache/players", h.ClearPlayers)

		r.Get("/nations", h.GetNations)
		r.Get("/nations/{name}/leagues", h.GetLeagues)
		r.Get("/leagues/{id}/teams", h.GetTeams)
		r.Get("/national-teams", h.GetNationalTeams)

		r.Get("/players", h.GetPlayers)
		r.Get("/search", h.Search)
	})

	return r
}
