// Package graph provides the data model for knowledge-graph snapshots.
//
// A [Snapshot] is the only unit of replacement: loads produce a new snapshot
// and nothing patches individual nodes or links afterwards. Layouts and the
// external physics simulation may write node coordinates, and renderers may
// rewrite link endpoints from raw ids to node references, which is why every
// reader resolves endpoints through [Endpoint.ID].
//
// # Core Types
//
//   - [Node]: an article in the knowledge base with optional position
//   - [Link]: a directed relation between two nodes
//   - [Endpoint]: tagged union of a raw [ID] or a *[Node] reference
//   - [Snapshot]: the {nodes, links} pair
//   - [IDSet]: membership set used by filtering and styling
//
// # Wire Format
//
// The graph load endpoint returns:
//
//	{
//	  "nodes": [{"id": 1, "title": "Go", "slug": "go", "tags": ["lang"], "summary": ""}],
//	  "links": [{"id": 7, "source": 1, "target": 2, "type": "ref"}]
//	}
//
// Ids may be JSON numbers or strings. [Decode] normalizes the payload:
// non-array collections become empty, missing tags and summary are defaulted,
// and entries that cannot be used (bad JSON, empty or duplicate ids, links to
// unknown nodes) are dropped. Each normalization is reported as a
// MALFORMED_DATA warning so callers can log it without failing the load.
//
// # Concurrency
//
// Snapshots are not synchronized. The engine mutates them only from its
// scheduler goroutine.
package graph
