package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var dedupSharedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "apifootball_dedup_shared_total",
	Help: "Total number of callers that received a result shared with a concurrent identical request",
}, []string{"resource"})

// requestKey normalizes a request for deduplication. url.Values.Encode sorts
// by parameter name, so equivalent queries map to the same key.
func requestKey(resource string, query url.Values) string {
	if len(query) == 0 {
		return resource
	}
	return resource + "?" + query.Encode()
}

// dedupe runs fn at most once per key among concurrent callers. Every caller
// gets the same outcome, error included. The entry is dropped as soon as fn
// settles, so a later call with the same key starts a new request.
//
// Callers that give up (ctx done) stop waiting with ErrContextCancelled while
// the shared call keeps running for the others. fn must not depend on any
// single caller's cancellation. The returned slice is shared between callers
// and must not be modified.
func (c *Client) dedupe(ctx context.Context, resource, key string, fn func() ([]json.RawMessage, error)) ([]json.RawMessage, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		return fn()
	})

	select {
	case <-ctx.Done():
		c.logger.Debug().Str("key", key).Msg("Caller stopped waiting for in-flight request")
		return nil, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
	case res := <-ch:
		if res.Shared {
			dedupSharedTotal.WithLabelValues(resource).Inc()
			c.logger.Debug().Str("key", key).Msg("Shared in-flight request")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		records, _ := res.Val.([]json.RawMessage)
		return records, nil
	}
}
