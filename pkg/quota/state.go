// Package quota tracks the provider's daily call allowance locally.
// API-Football does not push live usage, so every successful network round
// trip is counted here and requests are refused once the day's limit is hit.
package quota

import (
	"math"
	"time"
)

// StorageKey is where the counter lives in the shared store.
const StorageKey = "api_counter"

// DateLayout matches JavaScript's Date.toDateString(), which the browser
// front-end uses for the same key.
const DateLayout = "Mon Jan 02 2006"

// DefaultDailyLimit is the free-tier allowance.
const DefaultDailyLimit = 100

// Counter is the persisted day-scoped call count.
type Counter struct {
	Count int    `json:"count"`
	Date  string `json:"date"`
}

// Usage is the derived view of a Counter against a limit.
type Usage struct {
	Used       int    `json:"used"`
	Limit      int    `json:"limit"`
	Remaining  int    `json:"remaining"`
	Percentage int    `json:"percentage"`
	Date       string `json:"date"`
}

// Today formats t as a counter date.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}

// UsageOf computes the usage numbers for c.
func UsageOf(c Counter, limit int) Usage {
	u := Usage{
		Used:      c.Count,
		Limit:     limit,
		Remaining: limit - c.Count,
		Date:      c.Date,
	}
	if u.Remaining < 0 {
		u.Remaining = 0
	}
	if limit > 0 {
		u.Percentage = int(math.Round(float64(c.Count) / float64(limit) * 100))
	}
	return u
}

// Exhausted reports whether no calls are left.
func (u Usage) Exhausted() bool {
	return u.Used >= u.Limit
}

// NearLimit reports whether at least 80% of the allowance is spent.
func (u Usage) NearLimit() bool {
	return u.Percentage >= 80
}
