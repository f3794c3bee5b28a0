package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	errs "github.com/dogeow/wikigraph/pkg/errors"
	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/source"
)

const first = `{"nodes":[{"id":1,"title":"A"},{"id":2,"title":"B"}],"links":[{"source":1,"target":2}]}`
const second = `{"nodes":[{"id":3,"title":"C"}],"links":[]}`

// scripted returns each response in turn, repeating the last one.
type scripted struct {
	mu    sync.Mutex
	calls int
	resp  []func() ([]byte, error)
}

func (s *scripted) Fetch(context.Context) ([]byte, error) {
	s.mu.Lock()
	i := min(s.calls, len(s.resp)-1)
	s.calls++
	s.mu.Unlock()
	return s.resp[i]()
}

func ok(doc string) func() ([]byte, error) {
	return func() ([]byte, error) { return []byte(doc), nil }
}

func fail(err error) func() ([]byte, error) {
	return func() ([]byte, error) { return nil, err }
}

func ids(s *graph.Snapshot) []graph.ID {
	out := make([]graph.ID, len(s.Nodes))
	for i, n := range s.Nodes {
		out[i] = n.ID
	}
	return out
}

func TestEmptyBeforeLoad(t *testing.T) {
	s := New(source.Bytes(first), nil)
	snap := s.Snapshot()
	if snap == nil || len(snap.Nodes) != 0 || len(snap.Links) != 0 {
		t.Errorf("initial snapshot = %+v", snap)
	}
	if s.Loading() || s.Generation() != 0 {
		t.Error("fresh store reports activity")
	}
}

func TestLoadReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	s := New(&scripted{resp: []func() ([]byte, error){ok(first), ok(second)}}, nil)

	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	a := s.Snapshot()
	if len(a.Nodes) != 2 || len(a.Links) != 1 {
		t.Fatalf("first load = %v", ids(a))
	}

	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	b := s.Snapshot()
	if got := ids(b); len(got) != 1 || got[0] != "3" || len(b.Links) != 0 {
		t.Errorf("second load = %v, %d links", got, len(b.Links))
	}
	if len(a.Nodes) != 2 {
		t.Error("previous snapshot was mutated by the replacement")
	}
	if s.Generation() != 2 {
		t.Errorf("generation = %d, want 2", s.Generation())
	}
}

func TestFailedLoadKeepsSnapshot(t *testing.T) {
	tests := []struct {
		name string
		resp func() ([]byte, error)
	}{
		{"fetch error", fail(errors.New("connection refused"))},
		{"not json", ok("<html>")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := New(&scripted{resp: []func() ([]byte, error){ok(first), tt.resp}}, nil)
			if err := s.Load(ctx); err != nil {
				t.Fatal(err)
			}
			before := s.Snapshot()

			err := s.Load(ctx)
			if !errs.Is(err, errs.ErrCodeLoad) {
				t.Fatalf("err = %v, want LOAD_FAILED", err)
			}
			if s.Snapshot() != before {
				t.Error("failed load replaced the snapshot")
			}
			if s.Loading() {
				t.Error("loading flag left set")
			}
			if s.Generation() != 1 {
				t.Errorf("generation = %d, want 1", s.Generation())
			}
		})
	}
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	entered := make(chan struct{})
	slow := func() ([]byte, error) {
		close(entered)
		<-release
		return []byte(first), nil
	}
	s := New(&scripted{resp: []func() ([]byte, error){slow, ok(second)}}, nil)

	done := make(chan error, 1)
	go func() { done <- s.Load(ctx) }()
	<-entered
	if !s.Loading() {
		t.Error("Loading() = false during fetch")
	}

	if err := s.Load(ctx); err != nil {
		t.Fatalf("newer Load: %v", err)
	}
	close(release)
	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Errorf("stale Load = %v, want ErrSuperseded", err)
	}
	if got := ids(s.Snapshot()); len(got) != 1 || got[0] != "3" {
		t.Errorf("snapshot = %v, want the newer load", got)
	}
	if s.Loading() {
		t.Error("loading flag left set")
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s := New(&scripted{resp: []func() ([]byte, error){ok(first), fail(errors.New("down"))}}, nil)
	var got []*graph.Snapshot
	s.Subscribe(func(snap *graph.Snapshot) { got = append(got, snap) })

	_ = s.Load(ctx)
	_ = s.Load(ctx)
	if len(got) != 1 || got[0] != s.Snapshot() {
		t.Errorf("notifications = %d, want 1 for the committed load", len(got))
	}
}

func TestSubscribeDuringNotification(t *testing.T) {
	ctx := context.Background()
	s := New(&scripted{resp: []func() ([]byte, error){ok(first), ok(second)}}, nil)
	var outer, inner int
	s.Subscribe(func(*graph.Snapshot) {
		outer++
		if outer == 1 {
			s.Subscribe(func(*graph.Snapshot) { inner++ })
		}
	})

	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if outer != 1 || inner != 0 {
		t.Fatalf("after first load: outer = %d, inner = %d; want 1, 0", outer, inner)
	}
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if outer != 2 || inner != 1 {
		t.Errorf("after second load: outer = %d, inner = %d; want 2, 1", outer, inner)
	}
}

func TestMalformedCount(t *testing.T) {
	doc := `{"nodes":[{"id":1},{"id":1},{"title":"no id"}],"links":[{"source":1,"target":9}]}`
	s := New(source.Bytes(doc), nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := s.Malformed(); got != 3 {
		t.Errorf("malformed = %d, want 3", got)
	}
	if n := len(s.Snapshot().Nodes); n != 1 {
		t.Errorf("nodes = %d, want 1", n)
	}
}

func TestNoSource(t *testing.T) {
	if err := New(nil, nil).Load(context.Background()); !errs.Is(err, errs.ErrCodeLoad) {
		t.Errorf("err = %v, want LOAD_FAILED", err)
	}
}
