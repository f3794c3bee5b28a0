package headless

import (
	"time"

	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/render"
)

// Defaults for [New].
const (
	DefaultWidth         = 800
	DefaultHeight        = 600
	DefaultCooldownTicks = 60
)

// Calls counts the renderer methods the engine invoked.
type Calls struct {
	SetGraphData int
	Pause        int
	Resume       int
	Reheat       int
	SetZoom      int
	CenterAt     int

	LastZoom   float64
	LastCenter render.Point
}

// Renderer is a headless implementation of every render capability.
type Renderer struct {
	events render.Events
	styler render.Styler
	snap   *graph.Snapshot

	width, height float64
	k, cx, cy     float64

	animating     bool
	simulating    bool
	ticksLeft     int
	cooldownTicks int

	clickRecenter bool
	zoom          *zoomBehavior

	calls Calls
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithSize sets the viewport size in pixels.
func WithSize(w, h float64) Option {
	return func(r *Renderer) {
		if w > 0 && h > 0 {
			r.width, r.height = w, h
		}
	}
}

// WithCooldownTicks sets how many ticks a reheated simulation runs before
// reporting that the engine stopped.
func WithCooldownTicks(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.cooldownTicks = n
		}
	}
}

// WithZoomConstructed builds the zoom behavior immediately instead of
// waiting for [Renderer.ConstructZoom].
func WithZoomConstructed() Option {
	return func(r *Renderer) { r.ConstructZoom() }
}

// WithoutClickRecenter disables the library-style camera jump on click.
func WithoutClickRecenter() Option {
	return func(r *Renderer) { r.clickRecenter = false }
}

// New creates a headless renderer with zoom 1 centered on the origin.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		width:         DefaultWidth,
		height:        DefaultHeight,
		k:             1,
		cooldownTicks: DefaultCooldownTicks,
		clickRecenter: true,
		snap:          graph.Empty(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind sets the receiver of renderer events.
func (r *Renderer) Bind(ev render.Events) { r.events = ev }

// Calls returns the call counters.
func (r *Renderer) Calls() Calls { return r.calls }

// ResetCalls zeroes the call counters.
func (r *Renderer) ResetCalls() { r.calls = Calls{} }

// Data returns the snapshot currently drawn.
func (r *Renderer) Data() *graph.Snapshot { return r.snap }

// Styler returns the styler set by the engine, or nil.
func (r *Renderer) Styler() render.Styler { return r.styler }

// Animating reports whether the render loop is running.
func (r *Renderer) Animating() bool { return r.animating }

// Simulating reports whether the simulation is still cooling down.
func (r *Renderer) Simulating() bool { return r.simulating }

// =============================================================================
// render.Renderer and capabilities
// =============================================================================

// SetGraphData implements [render.Renderer]. Link endpoints are rewritten to
// node references, as physics libraries do.
func (r *Renderer) SetGraphData(s *graph.Snapshot) {
	r.calls.SetGraphData++
	if s == nil {
		s = graph.Empty()
	}
	byID := make(map[graph.ID]*graph.Node, len(s.Nodes))
	for _, n := range s.Nodes {
		byID[n.ID] = n
	}
	for _, l := range s.Links {
		if n, ok := byID[l.Source.ID()]; ok {
			l.Source = graph.EndpointRef(n)
		}
		if n, ok := byID[l.Target.ID()]; ok {
			l.Target = graph.EndpointRef(n)
		}
	}
	r.snap = s
}

// SetStyler implements [render.Styled].
func (r *Renderer) SetStyler(s render.Styler) { r.styler = s }

// PauseAnimation implements [render.Animator].
func (r *Renderer) PauseAnimation() {
	r.calls.Pause++
	r.animating = false
}

// ResumeAnimation implements [render.Animator].
func (r *Renderer) ResumeAnimation() {
	r.calls.Resume++
	r.animating = true
}

// ReheatSimulation implements [render.Simulator].
func (r *Renderer) ReheatSimulation() {
	r.calls.Reheat++
	r.simulating = true
	r.ticksLeft = r.cooldownTicks
}

// ZoomScale implements [render.Viewport].
func (r *Renderer) ZoomScale() float64 { return r.k }

// SetZoom implements [render.Viewport]. Durations are ignored.
func (r *Renderer) SetZoom(k float64, _ time.Duration) {
	r.calls.SetZoom++
	r.calls.LastZoom = k
	if k > 0 {
		r.k = k
	}
	r.emitZoom()
}

// CenterAt implements [render.Viewport]. Durations are ignored.
func (r *Renderer) CenterAt(x, y float64, _ time.Duration) {
	r.calls.CenterAt++
	r.calls.LastCenter = render.Point{X: x, Y: y}
	r.cx, r.cy = x, y
	r.emitZoom()
}

// ScreenToGraph implements [render.Viewport].
func (r *Renderer) ScreenToGraph(x, y float64) (float64, float64) {
	t := r.Transform()
	return (x - t.X) / t.K, (y - t.Y) / t.K
}

// Size implements [render.Viewport].
func (r *Renderer) Size() (float64, float64) { return r.width, r.height }

// Transform returns the current zoom transform.
func (r *Renderer) Transform() render.Transform {
	return render.Transform{
		X: r.width/2 - r.cx*r.k,
		Y: r.height/2 - r.cy*r.k,
		K: r.k,
	}
}

// ZoomBehavior implements [render.ZoomController].
func (r *Renderer) ZoomBehavior() (render.ZoomBehavior, bool) {
	if r.zoom == nil {
		return nil, false
	}
	return r.zoom, true
}

// ConstructZoom builds the zoom behavior with the library default filter:
// primary button without ctrl, or any wheel event.
func (r *Renderer) ConstructZoom() {
	if r.zoom != nil {
		return
	}
	r.zoom = &zoomBehavior{filter: DefaultGestureFilter}
}

// DefaultGestureFilter is the filter a freshly constructed zoom behavior uses.
func DefaultGestureFilter(ev *render.GestureEvent) bool {
	if ev == nil {
		return true
	}
	return (!ev.Ctrl || ev.Type == render.EventWheel) && ev.Button == 0
}

// =============================================================================
// Simulation
// =============================================================================

// Tick advances the simulation by one step. When the cooldown runs out the
// engine-stopped event is emitted. It reports whether the simulation is
// still running.
func (r *Renderer) Tick() bool {
	if !r.simulating || !r.animating {
		return r.simulating
	}
	r.ticksLeft--
	if r.ticksLeft > 0 {
		return true
	}
	r.simulating = false
	if r.events != nil {
		r.events.OnEngineStop()
	}
	return false
}

// =============================================================================
// User input
// =============================================================================

// Wheel zooms by factor if the gesture filter allows it.
func (r *Renderer) Wheel(factor float64) bool {
	if factor <= 0 || !r.allow(&render.GestureEvent{Type: render.EventWheel}) {
		return false
	}
	r.k *= factor
	r.emitZoom()
	return true
}

// Pan moves the camera by a screen-space delta if the gesture filter allows it.
func (r *Renderer) Pan(dx, dy float64) bool {
	if !r.allow(&render.GestureEvent{Type: render.EventPointer}) {
		return false
	}
	r.cx -= dx / r.k
	r.cy -= dy / r.k
	r.emitZoom()
	return true
}

// Click emulates a primary click on a node. The click event is delivered
// first; then, unless the gesture filter rejects the click, the camera
// jumps to the node.
func (r *Renderer) Click(id graph.ID) {
	n := r.snap.Node(id)
	if n == nil {
		return
	}
	if r.events != nil {
		r.events.OnNodeClick(n)
	}
	if r.clickRecenter && r.allow(&render.GestureEvent{Type: render.EventClick}) {
		if x, y, ok := n.Position(); ok {
			r.cx, r.cy = x, y
		}
		r.emitZoom()
	}
}

// DoubleClick emulates a double click, which zooms in by 2 unless rejected.
func (r *Renderer) DoubleClick() bool {
	if !r.allow(&render.GestureEvent{Type: render.EventDblClick}) {
		return false
	}
	r.k *= 2
	r.emitZoom()
	return true
}

// Hover reports the pointer over a node; an empty id means no node.
func (r *Renderer) Hover(id graph.ID) {
	if r.events == nil {
		return
	}
	if id == "" {
		r.events.OnNodeHover(nil)
		return
	}
	if n := r.snap.Node(id); n != nil {
		r.events.OnNodeHover(n)
	}
}

// Drag moves a node to (x, y) and reports the drag.
func (r *Renderer) Drag(id graph.ID, x, y float64) {
	n := r.snap.Node(id)
	if n == nil {
		return
	}
	n.SetPosition(x, y)
	if r.events != nil {
		r.events.OnNodeDrag(n)
	}
}

// DragEnd reports the end of a drag.
func (r *Renderer) DragEnd(id graph.ID) {
	if n := r.snap.Node(id); n != nil && r.events != nil {
		r.events.OnNodeDragEnd(n)
	}
}

// RightClick reports a context click on a node.
func (r *Renderer) RightClick(id graph.ID) {
	if n := r.snap.Node(id); n != nil && r.events != nil {
		r.events.OnNodeRightClick(n)
	}
}

func (r *Renderer) allow(ev *render.GestureEvent) bool {
	if r.zoom == nil {
		return true
	}
	f := r.zoom.Filter()
	return f == nil || f(ev)
}

func (r *Renderer) emitZoom() {
	if r.events != nil {
		r.events.OnZoom(r.Transform())
	}
}

// zoomBehavior holds the replaceable gesture filter.
type zoomBehavior struct {
	filter render.GestureFilter
}

func (z *zoomBehavior) Filter() render.GestureFilter     { return z.filter }
func (z *zoomBehavior) SetFilter(f render.GestureFilter) { z.filter = f }

// =============================================================================
// Ready
// =============================================================================

// ReadyRenderer is a [Renderer] that also implements [render.ReadyNotifier].
type ReadyRenderer struct {
	*Renderer
	ready chan struct{}
}

// NewReady creates a renderer whose readiness is signalled by
// [ReadyRenderer.ConstructZoom].
func NewReady(opts ...Option) *ReadyRenderer {
	r := &ReadyRenderer{Renderer: New(opts...), ready: make(chan struct{})}
	if r.zoom != nil {
		close(r.ready)
	}
	return r
}

// Ready implements [render.ReadyNotifier].
func (r *ReadyRenderer) Ready() <-chan struct{} { return r.ready }

// ConstructZoom builds the zoom behavior and closes the ready channel.
func (r *ReadyRenderer) ConstructZoom() {
	if r.zoom != nil {
		return
	}
	r.Renderer.ConstructZoom()
	close(r.ready)
}

var (
	_ render.Renderer       = (*Renderer)(nil)
	_ render.Animator       = (*Renderer)(nil)
	_ render.Simulator      = (*Renderer)(nil)
	_ render.Viewport       = (*Renderer)(nil)
	_ render.ZoomController = (*Renderer)(nil)
	_ render.Styled         = (*Renderer)(nil)
	_ render.EventSource    = (*Renderer)(nil)
	_ render.ReadyNotifier  = (*ReadyRenderer)(nil)
)
