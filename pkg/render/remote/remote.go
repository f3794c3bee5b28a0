package remote

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/render"
	"github.com/dogeow/wikigraph/pkg/scheduler"
)

// Viewport size assumed until a client reports its canvas.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

var (
	_ render.Renderer       = (*Renderer)(nil)
	_ render.Animator       = (*Renderer)(nil)
	_ render.Simulator      = (*Renderer)(nil)
	_ render.Viewport       = (*Renderer)(nil)
	_ render.ZoomController = (*Renderer)(nil)
	_ render.ReadyNotifier  = (*Renderer)(nil)
	_ render.Styled         = (*Renderer)(nil)
	_ render.EventSource    = (*Renderer)(nil)
	_ http.Handler          = (*Renderer)(nil)
)

// Renderer is a [render.Renderer] whose canvas lives in connected browsers.
type Renderer struct {
	sched    scheduler.Scheduler
	logger   *log.Logger
	upgrader websocket.Upgrader
	origins  []string

	mu      sync.Mutex
	clients map[string]*client
	closed  bool

	ready     chan struct{}
	readyOnce sync.Once

	// Owned by the scheduler.
	events        render.Events
	styler        render.Styler
	snap          *graph.Snapshot
	zoom          *zoomBehavior
	k, cx, cy     float64
	width, height float64
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithAllowedOrigins accepts websocket upgrades from the given origins
// ("https://wiki.example.com"). Without it only same-host upgrades pass.
// "*" accepts any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(r *Renderer) { r.origins = append(r.origins, origins...) }
}

// New creates a renderer that posts client activity to sched.
func New(sched scheduler.Scheduler, opts ...Option) *Renderer {
	r := &Renderer{
		sched:   sched,
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
		clients: make(map[string]*client),
		ready:   make(chan struct{}),
		snap:    graph.Empty(),
		k:       1,
		width:   DefaultWidth,
		height:  DefaultHeight,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	if len(r.origins) > 0 {
		r.upgrader.CheckOrigin = r.checkOrigin
	}
	return r
}

func (r *Renderer) checkOrigin(req *http.Request) bool {
	if slices.Contains(r.origins, "*") {
		return true
	}
	origin := req.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, req.Host) {
		return true
	}
	return slices.ContainsFunc(r.origins, func(o string) bool {
		return strings.EqualFold(strings.TrimRight(o, "/"), origin)
	})
}

// Clients returns the number of connected clients. Safe from any
// goroutine.
func (r *Renderer) Clients() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Close disconnects every client and refuses new ones. Safe from any
// goroutine.
func (r *Renderer) Close() error {
	r.mu.Lock()
	r.closed = true
	clients := make([]*client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.clients = make(map[string]*client)
	r.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	return nil
}

// =============================================================================
// render.Renderer and capabilities
// =============================================================================

// Bind implements [render.EventSource].
func (r *Renderer) Bind(ev render.Events) { r.events = ev }

// SetGraphData implements [render.Renderer]. The snapshot is sent with its
// styling.
func (r *Renderer) SetGraphData(s *graph.Snapshot) {
	if s == nil {
		s = graph.Empty()
	}
	r.snap = s
	r.broadcast(Command{Op: OpGraph, Graph: encodeGraph(s)})
	r.Restyle()
}

// SetStyler implements [render.Styled].
func (r *Renderer) SetStyler(s render.Styler) {
	r.styler = s
	r.Restyle()
}

// Restyle sends fresh styling for the current graph. Hover and zoom changes
// call it; the engine does not need to.
func (r *Renderer) Restyle() {
	if cmd, ok := r.styleCommand(); ok {
		r.broadcast(cmd)
	}
}

func (r *Renderer) styleCommand() (Command, bool) {
	if r.styler == nil {
		return Command{}, false
	}
	return Command{Op: OpStyle, Style: encodeStyles(r.snap, r.styler, r.k)}, true
}

// PauseAnimation implements [render.Animator].
func (r *Renderer) PauseAnimation() { r.broadcast(Command{Op: OpPause}) }

// ResumeAnimation implements [render.Animator].
func (r *Renderer) ResumeAnimation() { r.broadcast(Command{Op: OpResume}) }

// ReheatSimulation implements [render.Simulator].
func (r *Renderer) ReheatSimulation() { r.broadcast(Command{Op: OpReheat}) }

// ZoomScale implements [render.Viewport].
func (r *Renderer) ZoomScale() float64 { return r.k }

// SetZoom implements [render.Viewport].
func (r *Renderer) SetZoom(k float64, d time.Duration) {
	if k > 0 {
		r.k = k
	}
	r.broadcast(Command{Op: OpZoom, K: r.k, Ms: d.Milliseconds()})
	r.emitZoom()
}

// CenterAt implements [render.Viewport].
func (r *Renderer) CenterAt(x, y float64, d time.Duration) {
	r.cx, r.cy = x, y
	r.broadcast(Command{Op: OpCenter, X: x, Y: y, Ms: d.Milliseconds()})
	r.emitZoom()
}

// ScreenToGraph implements [render.Viewport].
func (r *Renderer) ScreenToGraph(x, y float64) (float64, float64) {
	t := r.Transform()
	return (x - t.X) / t.K, (y - t.Y) / t.K
}

// Size implements [render.Viewport].
func (r *Renderer) Size() (float64, float64) { return r.width, r.height }

// Transform returns the mirrored zoom transform.
func (r *Renderer) Transform() render.Transform {
	return render.Transform{
		X: r.width/2 - r.cx*r.k,
		Y: r.height/2 - r.cy*r.k,
		K: r.k,
	}
}

// ZoomBehavior implements [render.ZoomController]. It exists once a client
// has reported ready.
func (r *Renderer) ZoomBehavior() (render.ZoomBehavior, bool) {
	if r.zoom == nil {
		return nil, false
	}
	return r.zoom, true
}

// Ready implements [render.ReadyNotifier].
func (r *Renderer) Ready() <-chan struct{} { return r.ready }

func (r *Renderer) emitZoom() {
	if r.events != nil {
		r.events.OnZoom(r.Transform())
	}
}

// =============================================================================
// Zoom behavior
// =============================================================================

// gestureTypes are probed to tell clients what the filter blocks.
var gestureTypes = []string{render.EventClick, render.EventDblClick, render.EventWheel, render.EventPointer}

// DefaultGestureFilter mirrors the browser zoom library's default: primary
// button without ctrl, or any wheel event.
func DefaultGestureFilter(ev *render.GestureEvent) bool {
	if ev == nil {
		return true
	}
	return (!ev.Ctrl || ev.Type == render.EventWheel) && ev.Button == 0
}

type zoomBehavior struct {
	r      *Renderer
	filter render.GestureFilter
}

func (z *zoomBehavior) Filter() render.GestureFilter { return z.filter }

func (z *zoomBehavior) SetFilter(f render.GestureFilter) {
	z.filter = f
	z.r.broadcast(z.command())
}

func (z *zoomBehavior) command() Command {
	cmd := Command{Op: OpFilter, Block: []string{}}
	if z.filter == nil {
		return cmd
	}
	for _, t := range gestureTypes {
		if !z.filter(&render.GestureEvent{Type: t}) {
			cmd.Block = append(cmd.Block, t)
		}
	}
	return cmd
}

// =============================================================================
// Client messages
// =============================================================================

// handle runs on the scheduler.
func (r *Renderer) handle(c *client, m Message) {
	switch m.Type {
	case MsgReady:
		r.resize(m.Width, m.Height)
		if r.zoom == nil {
			r.zoom = &zoomBehavior{r: r, filter: DefaultGestureFilter}
		}
		r.readyOnce.Do(func() { close(r.ready) })
		r.send(c, r.zoom.command())
		r.logger.Debug("client ready", "client", c.id, "width", r.width, "height", r.height)
		return
	case MsgResize:
		r.resize(m.Width, m.Height)
		return
	case MsgZoom:
		if m.K <= 0 {
			return
		}
		changed := m.K != r.k
		r.k = m.K
		r.cx = (r.width/2 - m.X) / m.K
		r.cy = (r.height/2 - m.Y) / m.K
		if r.events != nil {
			r.events.OnZoom(render.Transform{X: m.X, Y: m.Y, K: m.K})
		}
		if changed {
			r.Restyle()
		}
		return
	case MsgStop:
		if r.events != nil {
			r.events.OnEngineStop()
		}
		return
	}

	if r.events == nil {
		return
	}
	if m.Type == MsgHover && m.ID == "" {
		r.events.OnNodeHover(nil)
		r.Restyle()
		return
	}
	n := r.snap.Node(m.ID)
	if n == nil {
		r.logger.Debug("message for unknown node", "type", m.Type, "id", m.ID)
		return
	}
	switch m.Type {
	case MsgClick:
		r.events.OnNodeClick(n)
	case MsgHover:
		r.events.OnNodeHover(n)
		r.Restyle()
	case MsgDrag:
		n.SetPosition(m.X, m.Y)
		r.events.OnNodeDrag(n)
	case MsgDragEnd:
		r.events.OnNodeDragEnd(n)
	case MsgRightClick:
		r.events.OnNodeRightClick(n)
	default:
		r.logger.Debug("unknown message", "type", m.Type, "client", c.id)
	}
}

func (r *Renderer) resize(w, h float64) {
	if w > 0 && h > 0 {
		r.width, r.height = w, h
	}
}

// greet runs on the scheduler when a client connects.
func (r *Renderer) greet(c *client) {
	r.send(c, Command{Op: OpHello, ClientID: c.id})
	r.send(c, Command{Op: OpGraph, Graph: encodeGraph(r.snap)})
	if cmd, ok := r.styleCommand(); ok {
		r.send(c, cmd)
	}
	r.send(c, Command{Op: OpZoom, K: r.k})
	r.send(c, Command{Op: OpCenter, X: r.cx, Y: r.cy})
}

// =============================================================================
// Connections
// =============================================================================

// ServeHTTP upgrades the request to a websocket and serves one client until
// it disconnects.
func (r *Renderer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		http.Error(w, "renderer closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("websocket upgrade failed", "err", err, "remote", req.RemoteAddr)
		return
	}
	c := newClient(uuid.NewString(), conn)

	r.mu.Lock()
	r.clients[c.id] = c
	r.mu.Unlock()
	r.logger.Info("client connected", "client", c.id, "remote", req.RemoteAddr)

	go c.writePump(r.logger)
	r.sched.Post(func() { r.greet(c) })

	c.readPump(r.logger, func(m Message) {
		r.sched.Post(func() { r.handle(c, m) })
	})

	r.drop(c)
	r.logger.Info("client disconnected", "client", c.id)
}

func (r *Renderer) drop(c *client) {
	r.mu.Lock()
	delete(r.clients, c.id)
	r.mu.Unlock()
	c.close()
}

func (r *Renderer) broadcast(cmd Command) {
	data, err := json.Marshal(cmd)
	if err != nil {
		r.logger.Error("encode command", "op", cmd.Op, "err", err)
		return
	}
	r.mu.Lock()
	clients := make([]*client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.Unlock()

	for _, c := range clients {
		if !c.enqueue(data) {
			r.logger.Warn("client too slow, disconnecting", "client", c.id)
			r.drop(c)
		}
	}
}

func (r *Renderer) send(c *client, cmd Command) {
	data, err := json.Marshal(cmd)
	if err != nil {
		r.logger.Error("encode command", "op", cmd.Op, "err", err)
		return
	}
	if !c.enqueue(data) {
		r.drop(c)
	}
}
