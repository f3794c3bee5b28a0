package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dogeow/wikigraph/pkg/cache"
	errs "github.com/dogeow/wikigraph/pkg/errors"
	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/httputil"
)

const doc = `{"nodes":[{"id":1,"title":"Go"},{"id":2,"title":"Rust"}],"links":[{"source":1,"target":2}]}`

func fastClient(url string) *httputil.Client {
	return httputil.NewClient(url, nil).WithRetry(2, time.Millisecond)
}

func TestHTTPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != GraphPath {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(doc))
	}))
	defer srv.Close()

	data, err := NewHTTPWithClient(fastClient(srv.URL)).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	s, _, err := graph.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(s.Nodes) != 2 || len(s.Links) != 1 {
		t.Errorf("got %d nodes, %d links", len(s.Nodes), len(s.Links))
	}
}

func TestHTTPErrorCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   errs.Code
	}{
		{"not found", http.StatusNotFound, errs.ErrCodeNotFound},
		{"server error", http.StatusInternalServerError, errs.ErrCodeNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := NewHTTPWithClient(fastClient(srv.URL)).Fetch(context.Background())
			if got := errs.GetCode(err); got != tt.want {
				t.Errorf("code = %v, want %v (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := NewFile(path).Fetch(context.Background())
	if err != nil || string(data) != doc {
		t.Errorf("Fetch = (%q, %v)", data, err)
	}

	_, err = NewFile(filepath.Join(t.TempDir(), "missing.json")).Fetch(context.Background())
	if !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestBytesCopies(t *testing.T) {
	b := Bytes(doc)
	data, _ := b.Fetch(context.Background())
	data[0] = 'x'
	again, _ := b.Fetch(context.Background())
	if string(again) != doc {
		t.Error("Bytes returned its backing array")
	}
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	upstream := Func(func(context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte(doc), nil
	})
	s := NewCached(upstream, cache.NewMemory(), cache.Key("graph", "test"), time.Minute, nil)

	for range 3 {
		if _, err := s.Fetch(ctx); err != nil {
			t.Fatalf("Fetch: %v", err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("upstream calls = %d, want 1", n)
	}

	if err := s.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := s.Fetch(ctx); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("upstream calls after invalidate = %d, want 2", n)
	}
}

func TestCachedSharesConcurrentMisses(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	upstream := Func(func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte(doc), nil
	})
	s := NewCached(upstream, nil, "k", time.Minute, nil)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Fetch(context.Background()); err != nil {
				t.Errorf("Fetch: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("upstream calls = %d, want 1", n)
	}
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	ctx := context.Background()
	fail := true
	upstream := Func(func(context.Context) ([]byte, error) {
		if fail {
			return nil, errors.New("down")
		}
		return []byte(doc), nil
	})
	s := NewCached(upstream, cache.NewMemory(), "k", time.Minute, nil)

	if _, err := s.Fetch(ctx); err == nil {
		t.Fatal("expected error")
	}
	fail = false
	if data, err := s.Fetch(ctx); err != nil || string(data) != doc {
		t.Errorf("Fetch = (%q, %v)", data, err)
	}
}

func TestClient(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/wiki/nodes":
			var in NodeInput
			json.NewDecoder(r.Body).Decode(&in)
			json.NewEncoder(w).Encode(map[string]any{"id": 9, "title": in.Title, "slug": in.Slug})
		case r.Method == http.MethodPut && r.URL.Path == "/api/wiki/nodes/9":
			json.NewEncoder(w).Encode(map[string]any{"id": 9, "title": "renamed"})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/wiki/nodes/9":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPost && r.URL.Path == "/api/wiki/links":
			var in LinkInput
			json.NewDecoder(r.Body).Decode(&in)
			json.NewEncoder(w).Encode(map[string]any{"id": 3, "source": in.SourceID, "target": in.TargetID, "type": in.Type})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := NewClientWith(fastClient(srv.URL))

	n, err := c.CreateNode(ctx, NodeInput{Title: "Go", Slug: "go"})
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if n.ID != "9" || n.Title != "Go" {
		t.Errorf("created = %+v", n)
	}
	if n, err = c.UpdateNode(ctx, 9, NodeInput{Title: "renamed"}); err != nil || n.Title != "renamed" {
		t.Errorf("UpdateNode = (%+v, %v)", n, err)
	}
	l, err := c.CreateLink(ctx, LinkInput{SourceID: 9, TargetID: 1, Type: "see-also"})
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	if l.Source.ID() != "9" || l.Target.ID() != "1" || l.Type != "see-also" {
		t.Errorf("link = %+v", l)
	}
	if err := c.DeleteNode(ctx, 9); err != nil {
		t.Errorf("DeleteNode: %v", err)
	}
	if err := c.DeleteNode(ctx, 10); !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("DeleteNode(missing) = %v, want NOT_FOUND", err)
	}

	if len(seen) != 5 {
		t.Errorf("requests = %v", seen)
	}
}

func TestClientValidates(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", nil)
	ctx := context.Background()
	if _, err := c.CreateNode(ctx, NodeInput{}); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("CreateNode without title = %v", err)
	}
	if _, err := c.CreateLink(ctx, LinkInput{SourceID: 1}); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("CreateLink without target = %v", err)
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(path, 50*time.Millisecond, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan struct{}, 4)
	go w.Run(ctx, func() { changed <- struct{}{} })

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
	select {
	case <-changed:
		t.Error("burst reported more than once")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMongo(t *testing.T) {
	uri := os.Getenv("WIKIGRAPH_TEST_MONGO")
	if uri == "" {
		t.Skip("WIKIGRAPH_TEST_MONGO not set")
	}
	ctx := context.Background()
	m, err := DialMongo(ctx, MongoConfig{URI: uri, Database: "wikigraph_test"})
	if err != nil {
		t.Fatalf("DialMongo: %v", err)
	}
	defer m.Close(ctx)

	db := m.db
	defer db.Drop(ctx)
	if _, err := db.Collection(NodesCollection).InsertMany(ctx, []any{
		map[string]any{"id": 1, "title": "Go"},
		map[string]any{"id": 2, "title": "Rust"},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Collection(LinksCollection).InsertOne(ctx, map[string]any{"source": 1, "target": 2}); err != nil {
		t.Fatal(err)
	}

	data, err := m.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	s, _, err := graph.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Nodes) != 2 || len(s.Links) != 1 {
		t.Errorf("got %d nodes, %d links", len(s.Nodes), len(s.Links))
	}
}
