package filter

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/dogeow/wikigraph/pkg/graph"
)

func abc() *graph.Snapshot {
	return &graph.Snapshot{
		Nodes: []*graph.Node{
			{ID: "A", Title: "Alpha", Slug: "alpha", Tags: []string{"greek"}},
			{ID: "B", Title: "Beta", Slug: "beta", Tags: []string{}, Summary: "second letter"},
			{ID: "C", Title: "Gamma", Slug: "gamma", Tags: []string{"Physics"}},
		},
		Links: []*graph.Link{
			{ID: "1", Source: graph.EndpointID("A"), Target: graph.EndpointID("B")},
			{ID: "2", Source: graph.EndpointID("B"), Target: graph.EndpointID("C")},
		},
	}
}

func ids(s *graph.Snapshot) (nodes, links []graph.ID) {
	for _, n := range s.Nodes {
		nodes = append(nodes, n.ID)
	}
	for _, l := range s.Links {
		links = append(links, l.ID)
	}
	return
}

func TestApply(t *testing.T) {
	s := abc()

	tests := []struct {
		name          string
		query         string
		neighborsOnly bool
		active        graph.ID
		wantNodes     []graph.ID
		wantLinks     []graph.ID
	}{
		{"passthrough", "", false, "", []graph.ID{"A", "B", "C"}, []graph.ID{"1", "2"}},
		{"blank query", "   ", false, "", []graph.ID{"A", "B", "C"}, []graph.ID{"1", "2"}},
		{"neighbors of A", "", true, "A", []graph.ID{"A", "B"}, []graph.ID{"1"}},
		{"neighbors of B", "", true, "B", []graph.ID{"A", "B", "C"}, []graph.ID{"1", "2"}},
		{"neighbors without active", "", true, "", []graph.ID{"A", "B", "C"}, []graph.ID{"1", "2"}},
		{"neighbors wins over query", "gamma", true, "A", []graph.ID{"A", "B"}, []graph.ID{"1"}},
		{"query matches title", "alpha", false, "", []graph.ID{"A", "B"}, []graph.ID{"1"}},
		{"query is case-insensitive", "PHYSICS", false, "", []graph.ID{"B", "C"}, []graph.ID{"2"}},
		{"query matches summary", "letter", false, "", []graph.ID{"A", "B", "C"}, []graph.ID{"1", "2"}},
		{"query matches nothing", "zeta", false, "", nil, nil},
		{"query not trimmed", "  gamma", false, "", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var active *graph.Node
			if tt.active != "" {
				active = s.Node(tt.active)
			}
			gotNodes, gotLinks := ids(Apply(s, tt.query, tt.neighborsOnly, active))
			if !reflect.DeepEqual(gotNodes, tt.wantNodes) {
				t.Errorf("nodes = %v, want %v", gotNodes, tt.wantNodes)
			}
			if !reflect.DeepEqual(gotLinks, tt.wantLinks) {
				t.Errorf("links = %v, want %v", gotLinks, tt.wantLinks)
			}
		})
	}
}

func TestSearchIncludesContextEdges(t *testing.T) {
	s := &graph.Snapshot{
		Nodes: []*graph.Node{{ID: "A", Title: "apple"}, {ID: "B", Title: "banana"}},
		Links: []*graph.Link{{ID: "ab", Source: graph.EndpointID("A"), Target: graph.EndpointID("B")}},
	}
	nodes, links := ids(Apply(s, "banana", false, nil))
	if !reflect.DeepEqual(nodes, []graph.ID{"A", "B"}) || !reflect.DeepEqual(links, []graph.ID{"ab"}) {
		t.Errorf("got nodes %v links %v, want [A B] [ab]", nodes, links)
	}
}

func TestApplyHandlesEndpointRefs(t *testing.T) {
	s := abc()
	s.Links[0].Source = graph.EndpointRef(s.Nodes[0])
	s.Links[0].Target = graph.EndpointRef(s.Nodes[1])

	nodes, links := ids(Apply(s, "", true, s.Nodes[0]))
	if !reflect.DeepEqual(nodes, []graph.ID{"A", "B"}) || !reflect.DeepEqual(links, []graph.ID{"1"}) {
		t.Errorf("got nodes %v links %v", nodes, links)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	s := abc()
	Apply(s, "alpha", false, nil)
	Apply(s, "", true, s.Nodes[0])
	if len(s.Nodes) != 3 || len(s.Links) != 2 {
		t.Errorf("input changed: %d nodes %d links", len(s.Nodes), len(s.Links))
	}
}

func TestApplyIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	words := []string{"go", "graph", "note", "wiki", "layout", "zoom"}

	for round := 0; round < 50; round++ {
		s := randomSnapshot(rng, words, 30, 45)
		query := words[rng.Intn(len(words))]
		active := s.Nodes[rng.Intn(len(s.Nodes))]

		for _, mode := range []struct {
			neighborsOnly bool
			active        *graph.Node
		}{{false, nil}, {true, active}} {
			once := Apply(s, query, mode.neighborsOnly, mode.active)
			twice := Apply(once, query, mode.neighborsOnly, mode.active)

			n1, l1 := ids(once)
			n2, l2 := ids(twice)
			if !reflect.DeepEqual(n1, n2) || !reflect.DeepEqual(l1, l2) {
				t.Fatalf("round %d neighborsOnly=%v query=%q not idempotent:\n%v %v\n%v %v",
					round, mode.neighborsOnly, query, n1, l1, n2, l2)
			}
		}
	}
}

func randomSnapshot(rng *rand.Rand, words []string, n, m int) *graph.Snapshot {
	s := graph.Empty()
	for i := 0; i < n; i++ {
		s.Nodes = append(s.Nodes, &graph.Node{
			ID:    graph.ID(fmt.Sprint(i)),
			Title: words[rng.Intn(len(words))] + fmt.Sprint(i),
			Tags:  []string{words[rng.Intn(len(words))]},
		})
	}
	for i := 0; i < m; i++ {
		s.Links = append(s.Links, &graph.Link{
			ID:     graph.ID(fmt.Sprint("l", i)),
			Source: graph.EndpointID(graph.ID(fmt.Sprint(rng.Intn(n)))),
			Target: graph.EndpointID(graph.ID(fmt.Sprint(rng.Intn(n)))),
		})
	}
	return s
}
