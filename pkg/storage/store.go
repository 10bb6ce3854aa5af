// Package storage defines the key-value port shared by the quota tracker,
// the result cache and the catalog, plus its memory, Redis and SQLite backends.
//
// Keys are stored verbatim so that entries written by one backend keep the
// same names as the browser localStorage layout (api_counter, players_*,
// cache_*). Values are opaque bytes, in practice JSON documents.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("storage: key not found")

// Store is the narrow persistence port used throughout the client.
type Store interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys lists every key starting with prefix (case-sensitive) in ascending
	// byte order.
	// An empty prefix lists all keys.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
