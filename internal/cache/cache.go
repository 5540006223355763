// Package cache defines the key/value cache the season repository
// reads through.  The repository owns every key it writes and
// enumerates the exact set it must drop after each mutation, so the
// interface is deliberately small: get, set with TTL, keyed delete,
// and a flush that exists only as an explicit escape hatch for
// non-production use.
package cache

import (
	"context"
	"time"
)

// Store is the cache contract injected into repositories.  A miss is
// not an error: Get returns ok=false and callers repopulate from the
// backing store.
type Store interface {
	// Get returns the cached bytes for key, or ok=false on a miss.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	// Set stores val under key for ttl.  A non-positive ttl stores
	// the entry without expiry.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// Delete drops the given keys.  Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// Flush drops every entry.  Keyed invalidation is the normal
	// path; Flush is only for tests and manual recovery.
	Flush(ctx context.Context) error
}
