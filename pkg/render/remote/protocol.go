package remote

import (
	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/render"
)

// Server commands.
const (
	OpHello  = "hello"
	OpGraph  = "graph"
	OpStyle  = "style"
	OpPause  = "pause"
	OpResume = "resume"
	OpReheat = "reheat"
	OpZoom   = "zoom"
	OpCenter = "center"
	OpFilter = "filter"
)

// Client messages.
const (
	MsgReady      = "ready"
	MsgResize     = "resize"
	MsgZoom       = "zoom"
	MsgClick      = "click"
	MsgHover      = "hover"
	MsgDrag       = "drag"
	MsgDragEnd    = "dragend"
	MsgRightClick = "rightclick"
	MsgStop       = "stop"
)

// Command is a server-to-client message.
type Command struct {
	Op string `json:"op"`

	ClientID string `json:"client_id,omitempty"`

	Graph *Graph  `json:"graph,omitempty"`
	Style *Styles `json:"style,omitempty"`

	K  float64 `json:"k,omitempty"`
	X  float64 `json:"x,omitempty"`
	Y  float64 `json:"y,omitempty"`
	Ms int64   `json:"ms,omitempty"`

	Block []string `json:"block,omitempty"`
}

// Graph is the drawable graph: the snapshot with styling applied.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Node is a drawable node. Positioned nodes carry fixed coordinates.
type Node struct {
	ID    graph.ID `json:"id"`
	Title string   `json:"title"`
	FX    *float64 `json:"fx,omitempty"`
	FY    *float64 `json:"fy,omitempty"`
}

// Link is a drawable link.
type Link struct {
	Source graph.ID `json:"source"`
	Target graph.ID `json:"target"`
	Type   string   `json:"type,omitempty"`
}

// Styles carries the styler's answers for every node and link, in graph
// order.
type Styles struct {
	Background string             `json:"background"`
	Nodes      []render.NodePaint `json:"nodes"`
	LinkColors []string           `json:"link_colors"`
	LinkWidths []float64          `json:"link_widths"`
}

// Message is a client-to-server message.
type Message struct {
	Type string   `json:"type"`
	ID   graph.ID `json:"id,omitempty"`

	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
	K float64 `json:"k,omitempty"`

	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

func encodeGraph(s *graph.Snapshot) *Graph {
	g := &Graph{Nodes: make([]Node, len(s.Nodes)), Links: make([]Link, len(s.Links))}
	for i, n := range s.Nodes {
		g.Nodes[i] = Node{ID: n.ID, Title: n.Title, FX: n.X, FY: n.Y}
	}
	for i, l := range s.Links {
		g.Links[i] = Link{Source: l.Source.ID(), Target: l.Target.ID(), Type: l.Type}
	}
	return g
}

func encodeStyles(s *graph.Snapshot, st render.Styler, scale float64) *Styles {
	out := &Styles{
		Background: st.Background(),
		Nodes:      make([]render.NodePaint, len(s.Nodes)),
		LinkColors: make([]string, len(s.Links)),
		LinkWidths: make([]float64, len(s.Links)),
	}
	for i, n := range s.Nodes {
		out.Nodes[i] = st.PaintNode(n, scale)
	}
	for i, l := range s.Links {
		out.LinkColors[i] = st.LinkColor(l)
		out.LinkWidths[i] = st.LinkWidth(l)
	}
	return out
}
