package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// envelope is the JSON wrapper of every API-Football response.
//
//	{"get": "players", "parameters": {...}, "errors": [] | {...},
//	 "results": 20, "paging": {"current": 1, "total": 3}, "response": [...]}
type envelope struct {
	Response json.RawMessage `json:"response"`
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Paging   struct {
		Current int `json:"current"`
		Total   int `json:"total"`
	} `json:"paging"`
}

// embeddedError turns the errors field into an APIError. The provider sends
// an empty array when there is nothing to report and a keyed object
// otherwise, e.g. {"rateLimit": "Too many requests. ... per minute ..."}.
func (e *envelope) embeddedError() error {
	raw := bytes.TrimSpace(e.Errors)
	if isEmptyJSON(raw) {
		return nil
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keyed); err == nil {
		return keyedError(keyed)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			if m := textOf(item); m != "" {
				msgs = append(msgs, m)
			}
		}
		if len(msgs) == 0 {
			return nil
		}
		msg := strings.Join(msgs, "; ")
		if isPerMinuteLimit("", msg) {
			return &APIError{Message: msg, Err: ErrRateLimited}
		}
		return &APIError{Message: msg}
	}

	return &APIError{Message: string(raw)}
}

func keyedError(keyed map[string]json.RawMessage) error {
	if len(keyed) == 0 {
		return nil
	}

	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		parts       []string
		rateLimited bool
		dailyLimit  bool
	)
	for _, k := range keys {
		text := textOf(keyed[k])
		parts = append(parts, k+": "+text)
		if isPerMinuteLimit(k, text) {
			rateLimited = true
		}
		if k == "requests" {
			dailyLimit = true
		}
	}

	msg := strings.Join(parts, "; ")
	switch {
	case rateLimited:
		return &APIError{Message: msg, Err: ErrRateLimited}
	case dailyLimit:
		// The provider's own daily accounting ran out.
		return &APIError{Message: msg, Err: ErrQuotaExceeded}
	default:
		return &APIError{Message: msg}
	}
}

// isPerMinuteLimit recognizes the provider's per-minute throttle.
func isPerMinuteLimit(key, text string) bool {
	if key == "rateLimit" {
		return true
	}
	return strings.Contains(strings.ToLower(text), "per minute")
}

// records returns the response payload as a list. Absent or null payloads
// are an empty result; a single object is a one-element list.
func (e *envelope) records() ([]json.RawMessage, error) {
	raw := bytes.TrimSpace(e.Response)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []json.RawMessage{}, nil
	}

	switch raw[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode response list: %w", err)
		}
		if list == nil {
			list = []json.RawMessage{}
		}
		return list, nil
	case '{':
		return []json.RawMessage{json.RawMessage(raw)}, nil
	default:
		return nil, fmt.Errorf("unexpected response payload: %.40s", raw)
	}
}

func isEmptyJSON(raw []byte) bool {
	switch string(raw) {
	case "", "null", "[]", "{}", `""`:
		return true
	}
	return false
}

// textOf renders a JSON value as plain text, unquoting strings.
func textOf(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
