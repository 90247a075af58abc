// Package cache stores rendered layouts so that re-rendering an unchanged
// graph does not re-run Graphviz.
//
// Keys are derived from content: the layout key hashes the layout engine name
// together with the DOT text, so any change to the resolved graph or the
// templates produces a new key. Entries never need explicit invalidation; a
// TTL only bounds disk and memory use.
//
// Backends:
//   - [FileCache]: one JSON file per entry under the user cache directory (CLI)
//   - [RedisCache]: a shared Redis instance (serve deployments)
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// DefaultTTL bounds how long a rendered layout is kept.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	// A missing or expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
