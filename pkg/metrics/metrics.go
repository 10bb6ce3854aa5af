// Package metrics is the reference for every Prometheus metric the
// API-Football client exports and serves them over HTTP.
//
// Metrics are declared with promauto in the package that updates them
// (quota, client, cache, pagination, search, httpapi) so this package has no
// dependency on them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every package registers its metrics with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Quota Metrics (pkg/quota):
//   - apifootball_quota_used (Gauge): Calls spent today
//   - apifootball_quota_remaining (Gauge): Calls left today
//   - apifootball_quota_blocks_total (Counter): Requests refused locally because the quota was spent
//   - apifootball_quota_sync_overwrites_total (Counter): Remote usage figures that replaced the local counter
//
// Request Metrics (pkg/client):
//   - apifootball_requests_total{resource, outcome} (Counter): Logical requests by outcome
//     (ok, quota_exceeded, transport_error, api_error, rate_limited, cancelled, other)
//   - apifootball_request_duration_seconds{resource} (Histogram): Logical request duration, retries included
//   - apifootball_upstream_calls_total{resource, status} (Counter): Physical HTTP round trips
//   - apifootball_dedup_shared_total{resource} (Counter): Callers served by a concurrent identical request
//
// Retry Metrics (pkg/client):
//   - apifootball_retries_total{resource} (Counter): Retry attempts after a per-minute limit
//   - apifootball_retry_backoff_seconds (Histogram): Backoff waited before a retry
//   - apifootball_retry_exhausted_total{resource} (Counter): Requests that used up every attempt
//
// Cache Metrics (pkg/cache):
//   - apifootball_cache_hits_total{kind} (Counter): Hits by key kind (team_players, league_players, global_top, nations, ...)
//   - apifootball_cache_misses_total{kind} (Counter): Misses by key kind
//   - apifootball_cache_writes_total{kind} (Counter): Payloads written
//   - apifootball_cache_skipped_writes_total (Counter): Empty payloads not written
//   - apifootball_cache_purged_total (Counter): Malformed entries removed
//   - apifootball_cache_errors_total{operation} (Counter): Storage errors (get, set, delete, keys)
//
// Browsing Metrics (pkg/pagination, pkg/search):
//   - apifootball_pagination_loads_total{kind, origin} (Counter): Page/segment loads (cache, network, dump, error)
//   - apifootball_pagination_stale_discards_total (Counter): Results dropped after a scope change
//   - apifootball_search_total{origin} (Counter): Searches (short, session, fresh)
//
// HTTP Service Metrics (internal/httpapi):
//   - apifootball_http_requests_total{route, method, status} (Counter): Served requests
//   - apifootball_http_request_duration_seconds{route} (Histogram): Handler latency
//
// Example Prometheus Queries:
//
//   # Quota left today
//   apifootball_quota_remaining
//
//   # Cache Hit Rate
//   sum(rate(apifootball_cache_hits_total[5m])) /
//   (sum(rate(apifootball_cache_hits_total[5m])) + sum(rate(apifootball_cache_misses_total[5m])))
//
//   # Share of requests answered by an in-flight twin
//   sum(rate(apifootball_dedup_shared_total[5m])) / sum(rate(apifootball_requests_total[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(apifootball_request_duration_seconds_bucket[5m]))
