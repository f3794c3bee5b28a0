// Package style computes node and link styling from the interaction state.
//
// A [Styler] answers the renderer's color, width and paint callbacks. It
// reads the current highlight (active node, hovered node, neighbor set)
// from a [Highlight] on every call, so it never needs to be rebuilt when
// selection changes.
package style

import (
	"math"

	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/render"
)

// Node sizing and label thresholds.
const (
	NodeRadius      = 4
	RootRadius      = 12
	LabelOffset     = 6
	RootLabelOffset = 16
	BaseFontSize    = 12
	MinLabelScale   = 0.5
	ActiveLinkWidth = 3
	MutedLinkWidth  = 0.7
)

// Highlight exposes the interaction state styling depends on.
type Highlight interface {
	Active() *graph.Node
	Hover() *graph.Node
	Neighbors() graph.IDSet
}

// Styler implements [render.Styler].
type Styler struct {
	palette   Palette
	highlight Highlight
}

// New creates a styler. A nil highlight styles every node as default.
func New(p Palette, h Highlight) *Styler {
	return &Styler{palette: p, highlight: h}
}

// SetPalette switches palettes, e.g. after a theme change.
func (s *Styler) SetPalette(p Palette) { s.palette = p }

// Palette returns the palette in use.
func (s *Styler) Palette() Palette { return s.palette }

// Background implements [render.Styler].
func (s *Styler) Background() string { return s.palette.Background }

type role int

const (
	roleDefault role = iota
	roleHover
	roleNeighbor
	roleActive
)

func (s *Styler) role(n *graph.Node) (r role, hovered bool) {
	if s.highlight == nil {
		return roleDefault, false
	}
	active := s.highlight.Active()
	if h := s.highlight.Hover(); h != nil && h.ID == n.ID {
		hovered = true
	}
	switch {
	case active != nil && active.ID == n.ID:
		return roleActive, hovered
	case active != nil && s.highlight.Neighbors().Has(n.ID):
		return roleNeighbor, hovered
	case hovered:
		return roleHover, true
	}
	return roleDefault, false
}

// NodeColor implements [render.Styler]. Priority is active, neighbor,
// hover, default.
func (s *Styler) NodeColor(n *graph.Node) string {
	r, _ := s.role(n)
	switch r {
	case roleActive:
		return s.palette.NodeActive
	case roleNeighbor:
		return s.palette.NodeNeighbor
	case roleHover:
		return s.palette.NodeHover
	}
	return s.palette.NodeDefault
}

func (s *Styler) labelColor(r role) string {
	switch r {
	case roleActive:
		return s.palette.LabelActive
	case roleNeighbor:
		return s.palette.LabelNeighbor
	}
	return s.palette.LabelDefault
}

// PaintNode implements [render.Styler]. Labels are hidden when zoomed out
// below [MinLabelScale] unless the node is active, hovered or a neighbor.
func (s *Styler) PaintNode(n *graph.Node, scale float64) render.NodePaint {
	if scale <= 0 {
		scale = 1
	}
	r, hovered := s.role(n)
	p := render.NodePaint{
		Radius:      NodeRadius,
		Fill:        s.NodeColor(n),
		Label:       n.Title,
		LabelColor:  s.labelColor(r),
		FontSize:    BaseFontSize / math.Sqrt(scale),
		LabelOffset: LabelOffset,
	}
	if n.IsRoot() {
		p.Radius = RootRadius
		p.LabelOffset = RootLabelOffset
	}
	p.ShowLabel = scale >= MinLabelScale || r == roleActive || r == roleNeighbor || hovered
	return p
}

func (s *Styler) touchesActive(l *graph.Link) bool {
	if s.highlight == nil {
		return false
	}
	active := s.highlight.Active()
	return active != nil && l.Touches(active.ID)
}

// LinkColor implements [render.Styler].
func (s *Styler) LinkColor(l *graph.Link) string {
	if s.touchesActive(l) {
		return s.palette.LinkActive
	}
	return s.palette.LinkMuted
}

// LinkWidth implements [render.Styler].
func (s *Styler) LinkWidth(l *graph.Link) float64 {
	if s.touchesActive(l) {
		return ActiveLinkWidth
	}
	return MutedLinkWidth
}

var _ render.Styler = (*Styler)(nil)
