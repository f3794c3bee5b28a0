// Package filter derives the visible subgraph from a search query or from
// neighbors-only mode.
//
// [Apply] is a pure function of its inputs. It never reorders nodes or
// links and never mutates them; output slices share element pointers with
// the input.
package filter

import (
	"strings"

	"github.com/dogeow/wikigraph/pkg/graph"
)

// Apply returns the visible subgraph.
//
//   - neighborsOnly with an active node: the active node and its 1-hop
//     neighbors, with links between them.
//   - a non-blank query: nodes whose search text contains the query
//     (case-insensitive), expanded once to 1-hop neighbors, with links
//     between them.
//   - otherwise: the input unchanged.
func Apply(s *graph.Snapshot, query string, neighborsOnly bool, active *graph.Node) *graph.Snapshot {
	if neighborsOnly && active != nil {
		return restrict(s, graph.NeighborIDs(s.Links, active.ID))
	}
	if strings.TrimSpace(query) == "" {
		return s
	}

	matched := Match(s.Nodes, query)
	expanded := make(graph.IDSet, matched.Len())
	for id := range matched {
		expanded.Add(id)
	}
	for _, l := range s.Links {
		src, dst := l.Source.ID(), l.Target.ID()
		if matched.Has(src) {
			expanded.Add(dst)
		}
		if matched.Has(dst) {
			expanded.Add(src)
		}
	}
	return restrict(s, expanded)
}

// Match returns the ids of nodes whose search text contains query,
// ignoring case. The query is not trimmed.
func Match(nodes []*graph.Node, query string) graph.IDSet {
	q := strings.ToLower(query)
	set := make(graph.IDSet)
	for _, n := range nodes {
		if strings.Contains(strings.ToLower(n.SearchText()), q) {
			set.Add(n.ID)
		}
	}
	return set
}

func restrict(s *graph.Snapshot, keep graph.IDSet) *graph.Snapshot {
	out := &graph.Snapshot{Nodes: make([]*graph.Node, 0, keep.Len())}
	for _, n := range s.Nodes {
		if keep.Has(n.ID) {
			out.Nodes = append(out.Nodes, n)
		}
	}
	out.Links = graph.LinksWithin(s.Links, keep)
	return out
}
