package layout

import (
	"math"
	"strings"

	errs "github.com/dogeow/wikigraph/pkg/errors"
	"github.com/dogeow/wikigraph/pkg/graph"
)

// Kind selects a layout policy.
type Kind string

// Layout kinds.
const (
	Force  Kind = "force"
	Tree   Kind = "tree"
	Circle Kind = "circle"
	Grid   Kind = "grid"
)

// Tree and grid spacing.
const (
	TreeColumnGap  = 150
	TreeSiblingGap = 100
	TreeRootGap    = 200
	GridPitch      = 100
	MaxCircleRad   = 300
	CircleRadScale = 20
)

// Kinds returns every layout kind.
func Kinds() []Kind {
	return []Kind{Force, Tree, Circle, Grid}
}

// ParseKind validates a layout name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Kinds() {
		if k == valid {
			return k, nil
		}
	}
	return "", errs.New(errs.ErrCodeInvalidLayout, "unknown layout %q (want force, tree, circle or grid)", s)
}

// Static reports whether the kind computes coordinates itself.
func (k Kind) Static() bool {
	return k == Tree || k == Circle || k == Grid
}

// Apply lays out nodes in place and returns the same snapshot. Unknown kinds
// behave like [Force].
func Apply(s *graph.Snapshot, kind Kind) *graph.Snapshot {
	switch kind {
	case Tree:
		ApplyTree(s.Nodes, s.Links)
	case Circle:
		ApplyCircle(s.Nodes)
	case Grid:
		ApplyGrid(s.Nodes)
	}
	return s
}

// ApplyCircle places nodes on a circle of radius min(300, 20*sqrt(n)).
func ApplyCircle(nodes []*graph.Node) {
	n := float64(len(nodes))
	radius := math.Min(MaxCircleRad, CircleRadScale*math.Sqrt(n))
	for i, node := range nodes {
		angle := float64(i) / n * 2 * math.Pi
		node.SetPosition(radius*math.Cos(angle), radius*math.Sin(angle))
	}
}

// ApplyGrid places nodes row-major on a grid of ceil(sqrt(n)) columns.
func ApplyGrid(nodes []*graph.Node) {
	if len(nodes) == 0 {
		return
	}
	cols := int(math.Ceil(math.Sqrt(float64(len(nodes)))))
	rows := int(math.Ceil(float64(len(nodes)) / float64(cols)))
	for i, node := range nodes {
		row, col := i/cols, i%cols
		node.SetPosition(
			float64(col*GridPitch-cols*GridPitch/2),
			float64(row*GridPitch-rows*GridPitch/2),
		)
	}
}

// ApplyTree walks outgoing links from each root assigning positions. Nodes
// the walk never reaches keep whatever position they had.
func ApplyTree(nodes []*graph.Node, links []*graph.Link) {
	if len(nodes) == 0 {
		return
	}

	byID := make(map[graph.ID]*graph.Node, len(nodes))
	indegree := make(map[graph.ID]int, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
		indegree[n.ID] = 0
	}

	outgoing := make(map[graph.ID][]graph.ID)
	for _, l := range links {
		src, dst := l.Source.ID(), l.Target.ID()
		indegree[dst]++
		outgoing[src] = append(outgoing[src], dst)
	}

	var roots []graph.ID
	for _, n := range nodes {
		if indegree[n.ID] == 0 {
			roots = append(roots, n.ID)
		}
	}
	if len(roots) == 0 {
		roots = append(roots, nodes[0].ID)
	}

	processed := make(graph.IDSet, len(nodes))
	var place func(id graph.ID, x, y float64)
	place = func(id graph.ID, x, y float64) {
		if processed.Has(id) {
			return
		}
		processed.Add(id)
		n, ok := byID[id]
		if !ok {
			return
		}
		n.SetPosition(x, y)
		children := outgoing[id]
		mid := float64(len(children)-1) / 2
		for i, child := range children {
			place(child, x+TreeColumnGap, y+(float64(i)-mid)*TreeSiblingGap)
		}
	}

	for i, root := range roots {
		place(root, 0, float64(i*TreeRootGap))
	}
}
