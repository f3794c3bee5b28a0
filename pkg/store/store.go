// Package store holds the currently loaded graph snapshot.
//
// [Store.Load] fetches the raw document from a [source.Source], normalizes
// it with [graph.Decode] and replaces the snapshot as one unit. A failed
// load returns a LOAD_FAILED error and leaves the previous snapshot in
// place, so callers can simply retry.
//
// Loads may overlap (a refresh issued while a slow fetch is still in
// flight). Each load takes a generation number when it starts, and only
// commits if no newer load has committed before it. A slow stale response
// therefore never overwrites fresher data; it returns [ErrSuperseded]
// instead.
//
// The store is the only engine component touched from more than one
// goroutine and guards itself with a mutex. Subscribers run on the
// goroutine that committed the load.
package store

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/dogeow/wikigraph/pkg/errors"
	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/observability"
	"github.com/dogeow/wikigraph/pkg/source"
)

// ErrSuperseded is returned by a load that finished after a newer load had
// already committed. Its result is discarded.
var ErrSuperseded = errors.New("load superseded by a newer load")

// Store owns the loaded snapshot.
type Store struct {
	src    source.Source
	logger *log.Logger

	started atomic.Uint64

	mu        sync.RWMutex
	snap      *graph.Snapshot
	committed uint64
	inflight  int
	malformed int
	subs      []func(*graph.Snapshot)
}

// New creates a store with an empty snapshot.
func New(src source.Source, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Store{src: src, logger: logger, snap: graph.Empty()}
}

// Snapshot returns the current snapshot. It is never nil. The snapshot is
// shared: renderers and layouts mutate positions and link endpoints in
// place, so callers on other goroutines should use [Store.Clone].
func (s *Store) Snapshot() *graph.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Clone returns a deep copy of the current snapshot.
func (s *Store) Clone() *graph.Snapshot {
	return s.Snapshot().Clone()
}

// Loading reports whether any load is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// Generation returns the generation of the committed snapshot, zero before
// the first successful load.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed
}

// Malformed returns how many payload entries the last committed load
// dropped or defaulted.
func (s *Store) Malformed() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.malformed
}

// Subscribe registers fn to run after every committed load.
func (s *Store) Subscribe(fn func(*graph.Snapshot)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Load fetches, normalizes and commits a new snapshot.
func (s *Store) Load(ctx context.Context) error {
	gen := s.started.Add(1)
	hooks := observability.Engine()
	hooks.OnLoadStart(ctx, gen)
	start := time.Now()

	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()

	snap, warnings, err := s.fetch(ctx)

	s.mu.Lock()
	s.inflight--
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("graph load failed", "generation", gen, "err", err)
		lerr := errs.LoadError(err)
		hooks.OnLoadComplete(ctx, gen, observability.LoadStats{}, time.Since(start), lerr)
		return lerr
	}
	if gen < s.committed {
		s.mu.Unlock()
		s.logger.Debug("stale graph load discarded", "generation", gen, "committed", s.committed)
		hooks.OnLoadDiscarded(ctx, gen)
		return ErrSuperseded
	}
	s.snap = snap
	s.committed = gen
	s.malformed = len(warnings)
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	for _, w := range warnings {
		s.logger.Debug("malformed graph data", "warning", w)
	}
	stats := observability.LoadStats{Nodes: len(snap.Nodes), Links: len(snap.Links), Malformed: len(warnings)}
	s.logger.Debug("graph loaded", "generation", gen, "nodes", stats.Nodes, "links", stats.Links, "malformed", stats.Malformed)
	hooks.OnLoadComplete(ctx, gen, stats, time.Since(start), nil)

	for _, fn := range subs {
		fn(snap)
	}
	return nil
}

func (s *Store) fetch(ctx context.Context) (*graph.Snapshot, []error, error) {
	if s.src == nil {
		return nil, nil, errs.New(errs.ErrCodeInvalidConfig, "no graph source configured")
	}
	data, err := s.src.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	return graph.Decode(data)
}
