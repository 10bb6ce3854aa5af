// Package testutil provides testing utilities for the API-Football client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock API-Football endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock API-Football server for testing.
// Handlers are keyed by resource path without the leading slash
// ("players", "players/topscorers").
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	requestCount int
	pathCount    map[string]int
	lastAPIKey   string
	lastRawQuery string
}

// NewMockAPI creates a new mock API-Football server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers:  make(map[string]func(w http.ResponseWriter, r *http.Request)),
		pathCount: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resource := strings.TrimPrefix(r.URL.Path, "/")

		mock.mu.Lock()
		mock.requestCount++
		mock.pathCount[resource]++
		mock.lastAPIKey = r.Header.Get("x-apisports-key")
		mock.lastRawQuery = r.URL.RawQuery
		handler, exists := mock.handlers[resource]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.pathCount = make(map[string]int)
	m.lastAPIKey = ""
	m.lastRawQuery = ""
}

// SetHandler sets a custom handler for a resource.
func (m *MockAPI) SetHandler(resource string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[resource] = handler
}

// SetResponse configures a fixed response for a resource.
func (m *MockAPI) SetResponse(resource string, resp MockResponse) {
	m.SetHandler(resource, resp.write)
}

// SetSequence answers successive requests for a resource with the given
// responses; the last one repeats.
func (m *MockAPI) SetSequence(resource string, responses ...MockResponse) {
	var (
		mu sync.Mutex
		i  int
	)
	m.SetHandler(resource, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := responses[i]
		if i < len(responses)-1 {
			i++
		}
		mu.Unlock()
		resp.write(w, r)
	})
}

func (resp MockResponse) write(w http.ResponseWriter, _ *http.Request) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// RequestCount returns the number of requests made to the server.
func (m *MockAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests made for one resource.
func (m *MockAPI) PathCount(resource string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCount[resource]
}

// LastAPIKey returns the x-apisports-key header of the last request.
func (m *MockAPI) LastAPIKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastAPIKey
}

// LastRawQuery returns the encoded query of the last request.
func (m *MockAPI) LastRawQuery() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRawQuery
}

// defaultHandler answers with an empty successful envelope.
func (m *MockAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	NewEnvelopeResponse(strings.TrimPrefix(r.URL.Path, "/")).write(w, r)
}

// NewEnvelopeResponse creates a 200 OK envelope carrying records.
func NewEnvelopeResponse(resource string, records ...string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       Envelope(resource, records...),
	}
}

// NewEmbeddedErrorResponse creates a 200 OK envelope with a keyed
// application error, as the provider reports most failures.
func NewEmbeddedErrorResponse(key, message string) MockResponse {
	errs, _ := json.Marshal(map[string]string{key: message})
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"get":"","parameters":[],"errors":%s,"results":0,"paging":{"current":1,"total":1},"response":[]}`, errs),
	}
}

// NewRateLimitResponse creates the provider's per-minute throttle response.
func NewRateLimitResponse() MockResponse {
	return NewEmbeddedErrorResponse("rateLimit",
		"Too many requests. Your rate limit is 10 requests per minute.")
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message": "Internal server error"}`,
	}
}

// NewStatusResponse creates an account status response reporting used
// requests for the day.
func NewStatusResponse(current, limitDay int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body: fmt.Sprintf(`{"get":"status","parameters":[],"errors":[],"results":1,"paging":{"current":1,"total":1},`+
			`"response":{"account":{"firstname":"Test","lastname":"User","email":"test@example.com"},`+
			`"subscription":{"plan":"Free","end":"2025-01-01T00:00:00+00:00","active":true},`+
			`"requests":{"current":%d,"limit_day":%d}}}`, current, limitDay),
	}
}

// Envelope renders a successful envelope around the given JSON records.
func Envelope(resource string, records ...string) string {
	return fmt.Sprintf(`{"get":%q,"parameters":[],"errors":[],"results":%d,"paging":{"current":1,"total":1},"response":[%s]}`,
		resource, len(records), strings.Join(records, ","))
}

// PlayerRecord renders a provider player record.
func PlayerRecord(id int, name string, teamID int, team, rating string, goals int) string {
	return fmt.Sprintf(`{"player":{"id":%d,"name":%q,"photo":"https://media.api-sports.io/football/players/%d.png","nationality":"Italy","age":25},`+
		`"statistics":[{"team":{"id":%d,"name":%q},"games":{"position":"Midfielder","rating":%q},"goals":{"total":%d}}]}`,
		id, name, id, teamID, team, rating, goals)
}

// PlayerRecords renders n player records with consecutive ids starting at
// firstID.
func PlayerRecords(firstID, n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		id := firstID + i
		out[i] = PlayerRecord(id, fmt.Sprintf("Player %d", id), 505, "Inter", "7.1", i%5)
	}
	return out
}

// TeamRecord renders a provider team record.
func TeamRecord(id int, name, country string, national bool) string {
	return fmt.Sprintf(`{"team":{"id":%d,"name":%q,"code":null,"country":%q,"founded":1900,"national":%t,"logo":"https://media.api-sports.io/football/teams/%d.png"},"venue":{}}`,
		id, name, country, national, id)
}

// CountryRecord renders a provider country record.
func CountryRecord(name, code string) string {
	return fmt.Sprintf(`{"name":%q,"code":%q,"flag":"https://media.api-sports.io/flags/%s.svg"}`,
		name, code, strings.ToLower(code))
}

// LeagueRecord renders a provider league record.
func LeagueRecord(id int, name, country string) string {
	return fmt.Sprintf(`{"league":{"id":%d,"name":%q,"type":"League","logo":"https://media.api-sports.io/football/leagues/%d.png"},"country":{"name":%q}}`,
		id, name, id, country)
}
