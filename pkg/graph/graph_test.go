package graph

import (
	"encoding/json"
	"path/filepath"
	"testing"

	errs "github.com/dogeow/wikigraph/pkg/errors"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{"String", `"abc"`, "abc", false},
		{"Integer", `42`, "42", false},
		{"Float", `1.5`, "1.5", false},
		{"Null", `null`, "", false},
		{"Bool", `true`, "", true},
		{"Object", `{"id":1}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tt.input), &id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if id != tt.want {
				t.Errorf("id = %q, want %q", id, tt.want)
			}
		})
	}
}

func TestEndpoint(t *testing.T) {
	n := &Node{ID: "n1"}

	t.Run("RawID", func(t *testing.T) {
		e := EndpointID("n1")
		if e.ID() != "n1" || e.IsRef() || e.Ref() != nil {
			t.Errorf("EndpointID = %+v, want raw id n1", e)
		}
	})

	t.Run("Ref", func(t *testing.T) {
		e := EndpointRef(n)
		if e.ID() != "n1" || !e.IsRef() || e.Ref() != n {
			t.Errorf("EndpointRef = %+v, want ref to n1", e)
		}
	})

	t.Run("UnmarshalObject", func(t *testing.T) {
		var e Endpoint
		if err := json.Unmarshal([]byte(`{"id": 7, "title": "x"}`), &e); err != nil {
			t.Fatal(err)
		}
		if e.ID() != "7" {
			t.Errorf("ID() = %q, want 7", e.ID())
		}
	})

	t.Run("MarshalRefAsID", func(t *testing.T) {
		data, err := json.Marshal(EndpointRef(n))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != `"n1"` {
			t.Errorf("Marshal = %s, want \"n1\"", data)
		}
	})
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name         string
		payload      string
		wantNodes    int
		wantLinks    int
		wantWarnings int
		wantErr      bool
	}{
		{
			name:    "NotJSON",
			payload: `<html>`,
			wantErr: true,
		},
		{
			name:    "TopLevelArray",
			payload: `[]`,
			wantErr: true,
		},
		{
			name:         "Empty",
			payload:      `{"nodes": [], "links": []}`,
			wantNodes:    0,
			wantLinks:    0,
			wantWarnings: 0,
		},
		{
			name:         "NonArrayCollections",
			payload:      `{"nodes": {"a": 1}, "links": "oops"}`,
			wantWarnings: 2,
		},
		{
			name:         "MissingCollections",
			payload:      `{}`,
			wantWarnings: 2,
		},
		{
			name: "Valid",
			payload: `{
				"nodes": [{"id": 1, "title": "A"}, {"id": 2, "title": "B"}],
				"links": [{"id": 1, "source": 1, "target": 2, "type": "ref"}]
			}`,
			wantNodes: 2,
			wantLinks: 1,
		},
		{
			name: "DropsBadNodes",
			payload: `{
				"nodes": [{"id": 1}, {"id": 1}, {"title": "no id"}, {"id": true}, "junk"],
				"links": []
			}`,
			wantNodes:    1,
			wantWarnings: 4,
		},
		{
			name: "DropsDanglingLinks",
			payload: `{
				"nodes": [{"id": "a"}, {"id": "b"}],
				"links": [{"source": "a", "target": "b"}, {"source": "a", "target": "z"}, {"source": [], "target": "b"}]
			}`,
			wantNodes:    2,
			wantLinks:    1,
			wantWarnings: 2,
		},
		{
			name: "ObjectEndpoints",
			payload: `{
				"nodes": [{"id": "a"}, {"id": "b"}],
				"links": [{"source": {"id": "a"}, "target": {"id": "b"}}]
			}`,
			wantNodes: 2,
			wantLinks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, warnings, err := Decode([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(snap.Nodes) != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", len(snap.Nodes), tt.wantNodes)
			}
			if len(snap.Links) != tt.wantLinks {
				t.Errorf("links = %d, want %d", len(snap.Links), tt.wantLinks)
			}
			if len(warnings) != tt.wantWarnings {
				t.Errorf("warnings = %d (%v), want %d", len(warnings), warnings, tt.wantWarnings)
			}
			for _, w := range warnings {
				if !errs.Is(w, errs.ErrCodeMalformedData) {
					t.Errorf("warning %v lacks MALFORMED_DATA code", w)
				}
			}
			if snap.Nodes == nil || snap.Links == nil {
				t.Error("collections must be non-nil")
			}
		})
	}
}

func TestDecodeDefaults(t *testing.T) {
	snap, _, err := Decode([]byte(`{"nodes": [{"id": 1, "title": "A", "tags": null}], "links": []}`))
	if err != nil {
		t.Fatal(err)
	}
	n := snap.Nodes[0]
	if n.Tags == nil || len(n.Tags) != 0 {
		t.Errorf("Tags = %#v, want empty slice", n.Tags)
	}
	if n.Summary != "" {
		t.Errorf("Summary = %q, want empty", n.Summary)
	}
	if _, _, ok := n.Position(); ok {
		t.Error("Position() ok = true, want false on load")
	}
}

func TestSearchText(t *testing.T) {
	n := &Node{Title: "Graph", Slug: "graph", Tags: []string{"a", "b"}, Summary: "sum"}
	if got, want := n.SearchText(), "Graph graph a b sum"; got != want {
		t.Errorf("SearchText() = %q, want %q", got, want)
	}
}

func TestIsRoot(t *testing.T) {
	tests := map[string]bool{"我": true, "root": true, "Root": true, "ROOT": false, "notes": false}
	for title, want := range tests {
		if got := (&Node{Title: title}).IsRoot(); got != want {
			t.Errorf("IsRoot(%q) = %v, want %v", title, got, want)
		}
	}
}

func TestNeighborIDs(t *testing.T) {
	a, b := &Node{ID: "A"}, &Node{ID: "B"}
	links := []*Link{
		{Source: EndpointRef(a), Target: EndpointRef(b)},
		{Source: EndpointID("C"), Target: EndpointID("A")},
		{Source: EndpointID("B"), Target: EndpointID("D")},
	}

	set := NeighborIDs(links, "A")
	if set.Len() != 3 {
		t.Errorf("Len() = %d, want 3", set.Len())
	}
	for _, id := range []ID{"A", "B", "C"} {
		if !set.Has(id) {
			t.Errorf("set missing %s", id)
		}
	}
	if set.Has("D") {
		t.Error("set contains two-hop node D")
	}
}

func TestSnapshotClone(t *testing.T) {
	a := &Node{ID: "a", Tags: []string{"x"}}
	a.SetPosition(1, 2)
	orig := &Snapshot{
		Nodes: []*Node{a},
		Links: []*Link{{Source: EndpointRef(a), Target: EndpointID("a")}},
	}

	c := orig.Clone()
	c.Nodes[0].SetPosition(5, 5)
	c.Nodes[0].Tags[0] = "y"

	if x, _, _ := a.Position(); x != 1 {
		t.Errorf("original x = %v, want 1", x)
	}
	if a.Tags[0] != "x" {
		t.Errorf("original tags mutated: %v", a.Tags)
	}
	if c.Links[0].Source.IsRef() {
		t.Error("cloned link should hold raw ids")
	}
}

func TestFileRoundTrip(t *testing.T) {
	snap, _, err := Decode([]byte(`{"nodes":[{"id":"a","title":"A"},{"id":"b"}],"links":[{"source":"a","target":"b"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	snap.Nodes[0].SetPosition(10, 20)

	path := filepath.Join(t.TempDir(), "graph.json")
	if err := WriteFile(snap, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got.Nodes) != 2 || len(got.Links) != 1 {
		t.Fatalf("got %d nodes %d links, want 2/1", len(got.Nodes), len(got.Links))
	}
	if x, y, ok := got.Nodes[0].Position(); !ok || x != 10 || y != 20 {
		t.Errorf("Position() = (%v, %v, %v), want (10, 20, true)", x, y, ok)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
