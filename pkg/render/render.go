package render

import (
	"time"

	"github.com/dogeow/wikigraph/pkg/graph"
)

// =============================================================================
// Geometry
// =============================================================================

// Point is a position in graph space.
type Point struct {
	X, Y float64
}

// Transform is a zoom/pan transform reported by the renderer: screen =
// graph*K + (X, Y).
type Transform struct {
	X, Y, K float64
}

// =============================================================================
// Renderer Contract
// =============================================================================

// Renderer is the minimal contract: it accepts snapshots to draw.
type Renderer interface {
	SetGraphData(s *graph.Snapshot)
}

// Animator pauses and resumes the render loop.
type Animator interface {
	PauseAnimation()
	ResumeAnimation()
}

// Simulator restarts the physics simulation.
type Simulator interface {
	ReheatSimulation()
}

// Viewport exposes the camera.
type Viewport interface {
	ZoomScale() float64
	SetZoom(k float64, d time.Duration)
	CenterAt(x, y float64, d time.Duration)
	ScreenToGraph(x, y float64) (gx, gy float64)
	Size() (w, h float64)
}

// ZoomController exposes the zoom behavior. ok is false until the renderer
// has constructed it.
type ZoomController interface {
	ZoomBehavior() (zb ZoomBehavior, ok bool)
}

// ReadyNotifier exposes a channel closed once [ZoomController.ZoomBehavior]
// is available.
type ReadyNotifier interface {
	Ready() <-chan struct{}
}

// Styled renderers take node and link styling from a [Styler].
type Styled interface {
	SetStyler(s Styler)
}

// EventSource renderers deliver pointer and zoom activity to [Events].
type EventSource interface {
	Bind(ev Events)
}

// =============================================================================
// Zoom Gestures
// =============================================================================

// Gesture event types the zoom filter treats specially.
const (
	EventClick    = "click"
	EventDblClick = "dblclick"
	EventWheel    = "wheel"
	EventPointer  = "pointerdown"
)

// GestureEvent is the input event behind a zoom gesture.
type GestureEvent struct {
	Type   string
	Button int
	Ctrl   bool
}

// GestureFilter decides whether a gesture may change the camera. A nil
// event means the zoom was requested programmatically.
type GestureFilter func(ev *GestureEvent) bool

// ZoomBehavior owns the replaceable gesture filter.
type ZoomBehavior interface {
	Filter() GestureFilter
	SetFilter(f GestureFilter)
}

// =============================================================================
// Styling
// =============================================================================

// NodePaint describes how a single node is drawn at the current zoom.
type NodePaint struct {
	Radius      float64 `json:"radius"`
	Fill        string  `json:"fill"`
	Label       string  `json:"label"`
	LabelColor  string  `json:"label_color"`
	FontSize    float64 `json:"font_size"`
	LabelOffset float64 `json:"label_offset"`
	ShowLabel   bool    `json:"show_label"`
}

// Styler supplies the node/link color and width callbacks and the per-node
// paint callback.
type Styler interface {
	Background() string
	NodeColor(n *graph.Node) string
	LinkColor(l *graph.Link) string
	LinkWidth(l *graph.Link) float64
	PaintNode(n *graph.Node, scale float64) NodePaint
}

// =============================================================================
// Events
// =============================================================================

// Events receives renderer notifications. Node arguments may be nil for
// hover, meaning the pointer left every node.
type Events interface {
	OnZoom(t Transform)
	OnNodeClick(n *graph.Node)
	OnNodeHover(n *graph.Node)
	OnNodeDrag(n *graph.Node)
	OnNodeDragEnd(n *graph.Node)
	OnNodeRightClick(n *graph.Node)
	OnEngineStop()
}
