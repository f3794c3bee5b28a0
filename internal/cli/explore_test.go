package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dogeow/wikigraph/pkg/engine"
	"github.com/dogeow/wikigraph/pkg/interaction"
	"github.com/dogeow/wikigraph/pkg/layout"
	"github.com/dogeow/wikigraph/pkg/render/headless"
	"github.com/dogeow/wikigraph/pkg/scheduler"
	"github.com/dogeow/wikigraph/pkg/source"
)

func newTestModel(t *testing.T) exploreModel {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	loop := scheduler.NewLoop()
	go loop.Run(ctx)

	opened := &openedNode{}
	r := headless.New(headless.WithZoomConstructed())
	e, err := engine.New(engine.Options{
		Source:    source.Bytes(doc),
		Scheduler: loop,
		Renderer:  r,
		Actions: interaction.Actions{
			OpenArticle: func(slug string) { opened.article = slug },
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	loop.Post(e.Start)

	m := newExploreModel(ctx, e, r, opened)
	return update(t, m, m.load()())
}

func update(t *testing.T, m exploreModel, msg tea.Msg) exploreModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(exploreModel)
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func titles(m exploreModel) string {
	out := make([]string, len(m.nodes))
	for i, n := range m.nodes {
		out[i] = n.Title
	}
	return strings.Join(out, ",")
}

func TestExploreLoads(t *testing.T) {
	m := newTestModel(t)
	if m.err != nil {
		t.Fatalf("load error: %v", m.err)
	}
	if got := titles(m); got != "Alpha,Beta,Gamma,Delta" {
		t.Errorf("nodes = %s", got)
	}
	if !strings.Contains(m.View(), "Alpha") {
		t.Error("view does not list the nodes")
	}
}

func TestExploreSelectAndNeighbors(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.status.Active != "a" {
		t.Fatalf("active = %q, want a", m.status.Active)
	}

	m = update(t, m, keys("n"))
	if !m.status.NeighborsOnly || titles(m) != "Alpha,Beta" {
		t.Errorf("neighbors view = %s (neighbors only %v)", titles(m), m.status.NeighborsOnly)
	}

	m = update(t, m, keys("o"))
	if m.message != "Article: /wiki/alpha" {
		t.Errorf("message = %q", m.message)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.status.Active != "" || m.status.NeighborsOnly {
		t.Errorf("after esc: active %q, neighbors only %v", m.status.Active, m.status.NeighborsOnly)
	}
	if titles(m) != "Alpha,Beta,Gamma,Delta" {
		t.Errorf("after esc nodes = %s", titles(m))
	}
}

func TestExploreSearch(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, keys("/"))
	if !m.search.Focused() {
		t.Fatal("search not focused")
	}
	for _, r := range "gamma" {
		m = update(t, m, keys(string(r)))
	}
	if m.status.Query != "gamma" || titles(m) != "Beta,Gamma" {
		t.Errorf("query %q shows %s", m.status.Query, titles(m))
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.search.Focused() {
		t.Error("enter did not leave the search box")
	}
	m = update(t, m, keys("q"))
	if m.status.Query != "gamma" {
		t.Error("q typed into the search after blur")
	}
}

func TestExploreLayoutAndZoom(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, keys("l"))
	if m.status.Layout != layout.Tree {
		t.Errorf("layout = %s, want tree", m.status.Layout)
	}
	if _, _, ok := m.nodes[0].Position(); !ok {
		t.Error("tree layout left nodes unpositioned")
	}

	m = update(t, m, keys("+"))
	if m.zoom <= 1 {
		t.Errorf("zoom = %v after zoom in", m.zoom)
	}
}

func TestExploreQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(keys("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q does not quit")
	}
}
