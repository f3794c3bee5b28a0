package interaction

import (
	"errors"
	"testing"

	"github.com/dogeow/wikigraph/pkg/graph"
)

type fakeAnimation struct {
	wakes, pauses int
	err           error
	panics        bool
}

func (f *fakeAnimation) Wake() error {
	f.wakes++
	return f.err
}

func (f *fakeAnimation) PauseAnimation() error {
	f.pauses++
	if f.panics {
		panic("pause exploded")
	}
	return f.err
}

func testGraph() *graph.Snapshot {
	return &graph.Snapshot{
		Nodes: []*graph.Node{
			{ID: "x", Title: "X", Slug: "x-slug"},
			{ID: "y", Title: "Y"},
			{ID: "z", Title: "Z"},
		},
		Links: []*graph.Link{
			{Source: graph.EndpointID("x"), Target: graph.EndpointID("y")},
		},
	}
}

func TestClickTwiceDeselects(t *testing.T) {
	s := testGraph()
	m := New(Options{})
	x := s.Node("x")

	m.Click(x)
	if m.State() != Active || m.Active() != x {
		t.Fatalf("after first click: state = %v, active = %v", m.State(), m.Active())
	}
	m.Click(x)
	if m.State() != Idle || m.Active() != nil {
		t.Errorf("after second click: state = %v, active = %v, want idle and nil", m.State(), m.Active())
	}
}

func TestClickOtherNodeNeverVisitsIdle(t *testing.T) {
	s := testGraph()
	m := New(Options{})
	var seen []Transition
	m.OnTransition(func(tr Transition) { seen = append(seen, tr) })

	m.Click(s.Node("x"))
	m.Click(s.Node("y"))

	if len(seen) != 2 {
		t.Fatalf("transitions = %d, want 2", len(seen))
	}
	for _, tr := range seen[1:] {
		if tr.To == Idle {
			t.Errorf("visited idle between selections: %+v", tr)
		}
	}
	if got := seen[1]; got.From != Active || got.To != Active || got.Prev.ID != "x" || got.Node.ID != "y" {
		t.Errorf("second transition = %+v", got)
	}
	if m.Active().ID != "y" {
		t.Errorf("active = %v, want y", m.Active().ID)
	}
}

func TestClickRunsHook(t *testing.T) {
	s := testGraph()
	calls := 0
	m := New(Options{OnClick: func() { calls++ }})
	m.Click(s.Node("x"))
	m.Click(s.Node("x"))
	if calls != 2 {
		t.Errorf("OnClick calls = %d, want 2", calls)
	}
}

func TestHoverDoesNotTouchSelection(t *testing.T) {
	s := testGraph()
	m := New(Options{})
	m.Click(s.Node("x"))

	m.PointerEnter(s.Node("z"))
	if m.Hover().ID != "z" || m.Active().ID != "x" {
		t.Errorf("hover = %v, active = %v", m.Hover(), m.Active())
	}
	m.PointerLeave(s.Node("y"))
	if m.Hover() == nil {
		t.Error("leaving another node cleared hover")
	}
	m.PointerLeave(s.Node("z"))
	if m.Hover() != nil {
		t.Error("hover not cleared")
	}
	if m.State() != Active {
		t.Errorf("state = %v, want active", m.State())
	}
}

func TestNeighbors(t *testing.T) {
	s := testGraph()
	m := New(Options{})
	m.SetLinks(s.Links)

	if m.Neighbors().Len() != 0 {
		t.Error("neighbors without selection should be empty")
	}
	m.Click(s.Node("x"))
	got := m.Neighbors()
	if got.Len() != 2 || !got.Has("x") || !got.Has("y") {
		t.Errorf("neighbors = %v, want {x, y}", got)
	}

	m.SetLinks(append(s.Links, &graph.Link{Source: graph.EndpointID("z"), Target: graph.EndpointID("x")}))
	if !m.Neighbors().Has("z") {
		t.Error("neighbors not recomputed after SetLinks")
	}
}

func TestDragWakesOnceAndDoesNotPause(t *testing.T) {
	s := testGraph()
	anim := &fakeAnimation{}
	m := New(Options{Animation: anim})
	m.Click(s.Node("x"))

	m.DragStart(s.Node("y"))
	m.DragStart(s.Node("y"))
	if m.State() != Dragging {
		t.Fatalf("state = %v, want dragging", m.State())
	}
	if anim.wakes != 1 {
		t.Errorf("wakes = %d, want 1", anim.wakes)
	}

	m.DragEnd(s.Node("y"))
	if m.State() != Active || m.Active().ID != "x" {
		t.Errorf("after drag: state = %v, active = %v", m.State(), m.Active())
	}
	if anim.pauses != 0 {
		t.Errorf("pauses = %d, want 0", anim.pauses)
	}
}

func TestDragFromIdleReturnsToIdle(t *testing.T) {
	s := testGraph()
	m := New(Options{})
	m.DragStart(s.Node("z"))
	m.DragEnd(s.Node("z"))
	if m.State() != Idle {
		t.Errorf("state = %v, want idle", m.State())
	}
}

func TestSelectionChangeWhileDragging(t *testing.T) {
	s := testGraph()
	m := New(Options{})
	m.SetLinks(s.Links)
	m.Click(s.Node("x"))
	m.DragStart(s.Node("z"))

	var seen []Transition
	m.OnTransition(func(tr Transition) { seen = append(seen, tr) })
	m.Click(s.Node("z"))

	if len(seen) != 1 {
		t.Fatalf("transitions = %d, want 1", len(seen))
	}
	if got := seen[0]; got.From != Dragging || got.To != Dragging || got.Prev.ID != "x" || got.Node.ID != "z" {
		t.Errorf("transition = %+v, want dragging -> dragging from x", got)
	}
	if m.State() != Dragging || m.Active().ID != "z" {
		t.Errorf("state = %v, active = %v", m.State(), m.Active())
	}
	if nb := m.Neighbors(); nb.Has("x") || !nb.Has("z") {
		t.Errorf("neighbors = %v, want recomputed around z", nb)
	}

	m.Deselect()
	if len(seen) != 2 || seen[1].Prev.ID != "z" || m.Active() != nil {
		t.Fatalf("deselect while dragging: transitions = %+v, active = %v", seen, m.Active())
	}
	m.DragEnd(s.Node("z"))
	if m.State() != Idle {
		t.Errorf("after drag: state = %v, want idle", m.State())
	}
}

func TestEngineStoppedSurvivesRendererFailures(t *testing.T) {
	tests := []struct {
		name string
		anim *fakeAnimation
	}{
		{"error", &fakeAnimation{err: errors.New("boom")}},
		{"panic", &fakeAnimation{panics: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(Options{Animation: tt.anim})
			m.EngineStopped()
			if tt.anim.pauses != 1 {
				t.Errorf("pauses = %d, want 1", tt.anim.pauses)
			}
		})
	}

	New(Options{}).EngineStopped()
}

func TestRightClick(t *testing.T) {
	tests := []struct {
		name        string
		editor      bool
		node        graph.ID
		wantEditor  bool
		wantArticle string
	}{
		{"editor opens editor", true, "x", true, ""},
		{"reader opens article", false, "x", false, "x-slug"},
		{"reader without slug", false, "y", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testGraph()
			var edited *graph.Node
			var article string
			m := New(Options{
				Editor: tt.editor,
				Actions: Actions{
					OpenEditor:  func(n *graph.Node) { edited = n },
					OpenArticle: func(slug string) { article = slug },
				},
			})
			m.RightClick(s.Node(tt.node))

			if m.Active() == nil || m.Active().ID != tt.node {
				t.Errorf("active = %v, want %s", m.Active(), tt.node)
			}
			if (edited != nil) != tt.wantEditor {
				t.Errorf("editor opened = %v, want %v", edited != nil, tt.wantEditor)
			}
			if article != tt.wantArticle {
				t.Errorf("article = %q, want %q", article, tt.wantArticle)
			}
		})
	}
}

func TestRightClickKeepsSelectionOnActiveNode(t *testing.T) {
	s := testGraph()
	m := New(Options{})
	m.Click(s.Node("x"))
	n := 0
	m.OnTransition(func(Transition) { n++ })
	m.RightClick(s.Node("x"))
	if n != 0 || m.Active().ID != "x" {
		t.Errorf("transitions = %d, active = %v", n, m.Active())
	}
}

func TestReconcile(t *testing.T) {
	s := testGraph()
	m := New(Options{})
	m.Click(s.Node("x"))
	m.PointerEnter(s.Node("z"))

	next := testGraph()
	m.Reconcile(next)
	if m.Active() != next.Node("x") || m.Hover() != next.Node("z") {
		t.Error("selection not re-pointed at the new snapshot")
	}

	var last Transition
	m.OnTransition(func(tr Transition) { last = tr })
	m.Reconcile(&graph.Snapshot{})
	if m.Active() != nil || m.Hover() != nil || m.State() != Idle {
		t.Errorf("state = %v, active = %v, hover = %v", m.State(), m.Active(), m.Hover())
	}
	if last.From != Active || last.To != Idle {
		t.Errorf("transition = %+v, want active -> idle", last)
	}
}
