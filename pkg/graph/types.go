package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// ID
// =============================================================================

// ID identifies a node or link. The load endpoint may send ids as JSON
// numbers or strings; both decode to the same textual form.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %s", data)
	}
	*id = ID(n.String())
	return nil
}

// String returns the id text.
func (id ID) String() string { return string(id) }

// =============================================================================
// Node
// =============================================================================

// Node is a knowledge-base article drawn as a graph vertex.
//
// Title, Slug, Tags and Summary belong to the editor and are never changed by
// the engine. X/Y/VX/VY are nil until a layout or the simulation sets them.
type Node struct {
	ID      ID       `json:"id"`
	Title   string   `json:"title"`
	Slug    string   `json:"slug"`
	Tags    []string `json:"tags"`
	Summary string   `json:"summary"`

	X  *float64 `json:"x,omitempty"`
	Y  *float64 `json:"y,omitempty"`
	VX *float64 `json:"vx,omitempty"`
	VY *float64 `json:"vy,omitempty"`
}

// SetPosition assigns the node coordinates.
func (n *Node) SetPosition(x, y float64) {
	n.X, n.Y = &x, &y
}

// Position returns the node coordinates and whether both are set.
func (n *Node) Position() (x, y float64, ok bool) {
	if n.X == nil || n.Y == nil {
		return 0, 0, false
	}
	return *n.X, *n.Y, true
}

// SearchText is the text searched by the filter: title, slug, tags and
// summary joined by single spaces.
func (n *Node) SearchText() string {
	return n.Title + " " + n.Slug + " " + strings.Join(n.Tags, " ") + " " + n.Summary
}

// IsRoot reports whether the node is one of the conventional root notes that
// renderers draw larger.
func (n *Node) IsRoot() bool {
	switch n.Title {
	case "我", "root", "Root":
		return true
	}
	return false
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	c.Tags = append([]string(nil), n.Tags...)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	c.X, c.Y = clonePtr(n.X), clonePtr(n.Y)
	c.VX, c.VY = clonePtr(n.VX), clonePtr(n.VY)
	return &c
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// =============================================================================
// Endpoint
// =============================================================================

// Endpoint is one end of a link: either a raw node id (as loaded) or a
// reference to the node itself (as rewritten by some renderers). Use [ID]
// to read it; never assume either representation.
type Endpoint struct {
	id  ID
	ref *Node
}

// EndpointID returns an endpoint holding a raw id.
func EndpointID(id ID) Endpoint { return Endpoint{id: id} }

// EndpointRef returns an endpoint holding a node reference.
func EndpointRef(n *Node) Endpoint { return Endpoint{ref: n} }

// ID resolves the endpoint to a node id.
func (e Endpoint) ID() ID {
	if e.ref != nil {
		return e.ref.ID
	}
	return e.id
}

// Ref returns the referenced node, or nil for raw-id endpoints.
func (e Endpoint) Ref() *Node { return e.ref }

// IsRef reports whether the endpoint holds a node reference.
func (e Endpoint) IsRef() bool { return e.ref != nil }

// MarshalJSON always writes the resolved id.
func (e Endpoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ID())
}

// UnmarshalJSON accepts a raw id or an object carrying an "id" field.
func (e *Endpoint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			ID ID `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*e = EndpointID(obj.ID)
		return nil
	}
	var id ID
	if err := id.UnmarshalJSON(data); err != nil {
		return err
	}
	*e = EndpointID(id)
	return nil
}

// =============================================================================
// Link
// =============================================================================

// Link is a directed relation between two nodes.
type Link struct {
	ID     ID       `json:"id,omitempty"`
	Source Endpoint `json:"source"`
	Target Endpoint `json:"target"`
	Type   string   `json:"type,omitempty"`
}

// Touches reports whether either endpoint resolves to id.
func (l *Link) Touches(id ID) bool {
	return l.Source.ID() == id || l.Target.ID() == id
}

// Clone returns a copy of the link with endpoints reduced to raw ids.
func (l *Link) Clone() *Link {
	return &Link{
		ID:     l.ID,
		Source: EndpointID(l.Source.ID()),
		Target: EndpointID(l.Target.ID()),
		Type:   l.Type,
	}
}

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot is the full node/link pair replaced as one unit.
type Snapshot struct {
	Nodes []*Node `json:"nodes"`
	Links []*Link `json:"links"`
}

// Empty returns a snapshot with non-nil empty collections.
func Empty() *Snapshot {
	return &Snapshot{Nodes: []*Node{}, Links: []*Link{}}
}

// Node returns the node with the given id, or nil.
func (s *Snapshot) Node(id ID) *Node {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Nodes: make([]*Node, len(s.Nodes)),
		Links: make([]*Link, len(s.Links)),
	}
	for i, n := range s.Nodes {
		out.Nodes[i] = n.Clone()
	}
	for i, l := range s.Links {
		out.Links[i] = l.Clone()
	}
	return out
}

// =============================================================================
// IDSet
// =============================================================================

// IDSet is a set of node ids.
type IDSet map[ID]struct{}

// NewIDSet returns a set containing ids.
func NewIDSet(ids ...ID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id.
func (s IDSet) Add(id ID) { s[id] = struct{}{} }

// Has reports whether id is in the set. A nil set contains nothing.
func (s IDSet) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the set size.
func (s IDSet) Len() int { return len(s) }

// NeighborIDs returns the active id plus every id directly linked to it,
// in either direction. The set is derived on demand and never stored.
func NeighborIDs(links []*Link, active ID) IDSet {
	set := NewIDSet(active)
	for _, l := range links {
		src, dst := l.Source.ID(), l.Target.ID()
		if src == active {
			set.Add(dst)
		}
		if dst == active {
			set.Add(src)
		}
	}
	return set
}

// LinksWithin returns links whose endpoints are both in set, in input order.
func LinksWithin(links []*Link, set IDSet) []*Link {
	out := make([]*Link, 0, len(links))
	for _, l := range links {
		if set.Has(l.Source.ID()) && set.Has(l.Target.ID()) {
			out = append(out, l)
		}
	}
	return out
}
