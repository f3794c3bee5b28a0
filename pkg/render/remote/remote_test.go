package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/render"
	"github.com/dogeow/wikigraph/pkg/render/style"
	"github.com/dogeow/wikigraph/pkg/scheduler"
)

type recorder struct {
	ch chan string
}

func (r *recorder) OnZoom(t render.Transform)      { r.ch <- "zoom" }
func (r *recorder) OnNodeClick(n *graph.Node)      { r.ch <- "click:" + string(n.ID) }
func (r *recorder) OnNodeDrag(n *graph.Node)       { r.ch <- "drag:" + string(n.ID) }
func (r *recorder) OnNodeDragEnd(n *graph.Node)    { r.ch <- "dragend:" + string(n.ID) }
func (r *recorder) OnNodeRightClick(n *graph.Node) { r.ch <- "rightclick:" + string(n.ID) }
func (r *recorder) OnEngineStop()                  { r.ch <- "stop" }
func (r *recorder) OnNodeHover(n *graph.Node) {
	if n == nil {
		r.ch <- "hover:"
		return
	}
	r.ch <- "hover:" + string(n.ID)
}

type fixture struct {
	r      *Renderer
	loop   *scheduler.Loop
	events *recorder
	srv    *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	loop := scheduler.NewLoop()
	go loop.Run(ctx)

	f := &fixture{
		r:      New(loop),
		loop:   loop,
		events: &recorder{ch: make(chan string, 16)},
	}
	f.srv = httptest.NewServer(f.r)
	t.Cleanup(func() {
		f.r.Close()
		f.srv.Close()
		cancel()
	})

	f.on(t, func() {
		f.r.Bind(f.events)
		a := &graph.Node{ID: "a", Title: "Alpha"}
		a.SetPosition(1, 2)
		f.r.SetGraphData(&graph.Snapshot{
			Nodes: []*graph.Node{a, {ID: "b", Title: "Beta"}},
			Links: []*graph.Link{{Source: graph.EndpointID("a"), Target: graph.EndpointID("b")}},
		})
		f.r.SetStyler(style.New(style.Light(), nil))
	})
	return f
}

// on runs fn on the loop and waits for it.
func (f *fixture) on(t *testing.T, fn func()) {
	t.Helper()
	done := make(chan struct{})
	f.loop.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not run the task")
	}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// expect reads commands until one with the given op arrives.
func expect(t *testing.T, conn *websocket.Conn, op string) Command {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			t.Fatalf("waiting for %q: %v", op, err)
		}
		if cmd.Op == op {
			return cmd
		}
	}
}

func (f *fixture) event(t *testing.T) string {
	t.Helper()
	select {
	case ev := <-f.events.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
		return ""
	}
}

func TestGreeting(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	hello := expect(t, conn, OpHello)
	if _, err := uuid.Parse(hello.ClientID); err != nil {
		t.Errorf("client id %q: %v", hello.ClientID, err)
	}

	g := expect(t, conn, OpGraph).Graph
	if len(g.Nodes) != 2 || len(g.Links) != 1 {
		t.Fatalf("graph = %+v", g)
	}
	if g.Nodes[0].FX == nil || *g.Nodes[0].FX != 1 || g.Nodes[1].FX != nil {
		t.Error("only positioned nodes are pinned")
	}
	if g.Links[0].Source != "a" || g.Links[0].Target != "b" {
		t.Errorf("link = %+v", g.Links[0])
	}

	st := expect(t, conn, OpStyle).Style
	if st.Background != "#ffffff" || len(st.Nodes) != 2 || st.Nodes[0].Label != "Alpha" {
		t.Errorf("style = %+v", st)
	}
	if f.r.Clients() != 1 {
		t.Errorf("clients = %d", f.r.Clients())
	}
}

func TestEventsReachScheduler(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	expect(t, conn, OpHello)

	msgs := []struct {
		msg  Message
		want string
	}{
		{Message{Type: MsgClick, ID: "a"}, "click:a"},
		{Message{Type: MsgHover, ID: "b"}, "hover:b"},
		{Message{Type: MsgHover}, "hover:"},
		{Message{Type: MsgDrag, ID: "b", X: 5, Y: 6}, "drag:b"},
		{Message{Type: MsgDragEnd, ID: "b"}, "dragend:b"},
		{Message{Type: MsgRightClick, ID: "a"}, "rightclick:a"},
		{Message{Type: MsgStop}, "stop"},
	}
	for _, m := range msgs {
		if err := conn.WriteJSON(m.msg); err != nil {
			t.Fatal(err)
		}
		if got := f.event(t); got != m.want {
			t.Errorf("%s: event = %q, want %q", m.msg.Type, got, m.want)
		}
	}

	var x, y float64
	var ok bool
	f.on(t, func() { x, y, ok = f.r.snap.Node("b").Position() })
	if !ok || x != 5 || y != 6 {
		t.Errorf("dragged node at (%v, %v, %v)", x, y, ok)
	}
}

func TestReadyBuildsZoomBehavior(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	expect(t, conn, OpHello)

	f.on(t, func() {
		if _, ok := f.r.ZoomBehavior(); ok {
			t.Error("zoom behavior before ready")
		}
	})

	if err := conn.WriteJSON(Message{Type: MsgReady, Width: 1000, Height: 500}); err != nil {
		t.Fatal(err)
	}
	if cmd := expect(t, conn, OpFilter); len(cmd.Block) != 0 {
		t.Errorf("default filter blocks %v", cmd.Block)
	}
	select {
	case <-f.r.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("ready channel never closed")
	}

	f.on(t, func() {
		zb, ok := f.r.ZoomBehavior()
		if !ok {
			t.Fatal("no zoom behavior after ready")
		}
		zb.SetFilter(func(ev *render.GestureEvent) bool {
			return ev.Type != render.EventClick && ev.Type != render.EventDblClick
		})
		if w, h := f.r.Size(); w != 1000 || h != 500 {
			t.Errorf("size = %vx%v", w, h)
		}
	})
	cmd := expect(t, conn, OpFilter)
	if !slices.Equal(cmd.Block, []string{render.EventClick, render.EventDblClick}) {
		t.Errorf("blocked = %v", cmd.Block)
	}
}

func TestZoomMirrorsClient(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	expect(t, conn, OpHello)

	// Graph point (10, 20) at the center of an 800x600 canvas, zoom 2.
	if err := conn.WriteJSON(Message{Type: MsgZoom, K: 2, X: 400 - 20, Y: 300 - 40}); err != nil {
		t.Fatal(err)
	}
	if got := f.event(t); got != "zoom" {
		t.Fatalf("event = %q", got)
	}
	f.on(t, func() {
		if f.r.ZoomScale() != 2 {
			t.Errorf("k = %v", f.r.ZoomScale())
		}
		if x, y := f.r.ScreenToGraph(400, 300); x != 10 || y != 20 {
			t.Errorf("center = (%v, %v), want (10, 20)", x, y)
		}
	})
	expect(t, conn, OpStyle)
}

func TestCommandsBroadcast(t *testing.T) {
	f := newFixture(t)
	a, b := f.dial(t), f.dial(t)
	expect(t, a, OpHello)
	expect(t, b, OpHello)

	f.on(t, func() {
		f.r.ReheatSimulation()
		f.r.SetZoom(3, 250*time.Millisecond)
	})
	for _, conn := range []*websocket.Conn{a, b} {
		expect(t, conn, OpReheat)
		if cmd := expect(t, conn, OpZoom); cmd.K != 3 || cmd.Ms != 250 {
			t.Errorf("zoom = %+v", cmd)
		}
	}
	if got := f.event(t); got != "zoom" {
		t.Errorf("SetZoom should report the new transform, got %q", got)
	}
}

func TestCloseDisconnects(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	expect(t, conn, OpHello)

	f.r.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	resp, err := http.Get(f.srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status after close = %d", resp.StatusCode)
	}
}

func TestCheckOrigin(t *testing.T) {
	r := New(scheduler.NewManual(), WithAllowedOrigins("https://wiki.example.com"))
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://viewer.local", true},
		{"https://wiki.example.com", true},
		{"https://evil.example.com", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "http://viewer.local/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := r.checkOrigin(req); got != tt.want {
			t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
