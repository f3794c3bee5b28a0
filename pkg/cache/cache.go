// Package cache provides the TTL caches the graph sources are decorated
// with.
//
// Every backend implements [Cache]. Caches are always constructed and
// injected explicitly; the package keeps no global state, so tests build a
// fresh instance each time.
//
// # Backends
//
//   - [Null]: never stores anything. The default when caching is disabled.
//   - [Memory]: an in-process map with per-entry expiry and an injectable
//     clock.
//   - [File]: one JSON file per entry under a directory, for the CLI.
//   - [Redis]: a shared cache for the server, keyed under a prefix.
//
// Keys are built with [Key], which hashes arbitrary components under a
// readable prefix.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads with an optional time to live.
//
// Get reports a miss with ok == false and a nil error. Expired entries are
// misses. A ttl of zero or less means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear removes every entry owned by the cache.
	Clear(ctx context.Context) error
	Close() error
}
