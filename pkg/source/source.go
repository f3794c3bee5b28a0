// Package source fetches the raw graph document the store loads.
//
// A [Source] returns the JSON document {"nodes": [...], "links": [...]}
// exactly as the knowledge base serves it; decoding and normalization
// happen in the store. Implementations:
//
//   - [HTTP]: GET {base}/api/wiki/graph with retry on transient failures.
//   - [File]: a JSON file on disk, usually paired with a [Watcher].
//   - [Mongo]: the nodes and links collections of a MongoDB database.
//   - [Cached]: a TTL cache in front of any other source.
//
// [Client] covers the write side of the API (node and link CRUD). Writes
// never touch the loaded graph directly: callers reload afterwards.
package source

import (
	"context"
)

// GraphPath is the API path of the graph document.
const GraphPath = "/api/wiki/graph"

// Source fetches the raw graph document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Func adapts a function to [Source].
type Func func(ctx context.Context) ([]byte, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context) ([]byte, error) { return f(ctx) }

// Bytes is a source that always returns the same document.
type Bytes []byte

// Fetch returns a copy of b.
func (b Bytes) Fetch(context.Context) ([]byte, error) {
	return append([]byte(nil), b...), nil
}
