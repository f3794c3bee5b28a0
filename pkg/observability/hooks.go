// Package observability provides instrumentation hooks for the engine.
//
// Hooks are interfaces with no-op defaults. The binary may register real
// implementations at startup (metrics, tracing); library code only ever
// calls through the accessors, so it carries no dependency on any
// particular backend.
//
// # Usage
//
// Register hooks once, before the engine starts:
//
//	observability.SetEngineHooks(&myEngineHooks{})
//
// Components emit events through the accessors:
//
//	observability.Engine().OnLoadStart(ctx, generation)
//	// ... fetch and decode ...
//	observability.Engine().OnLoadComplete(ctx, generation, stats, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Engine Hooks
// =============================================================================

// LoadStats summarizes a committed load.
type LoadStats struct {
	Nodes     int
	Links     int
	Malformed int
}

// PipelineStats summarizes one run of layout, filter and optimizer.
type PipelineStats struct {
	Layout   string
	Input    int
	Visible  int
	Degraded bool
}

// EngineHooks receives graph engine events.
type EngineHooks interface {
	OnLoadStart(ctx context.Context, generation uint64)
	OnLoadComplete(ctx context.Context, generation uint64, stats LoadStats, duration time.Duration, err error)
	// OnLoadDiscarded reports a load that finished after a newer one had
	// already committed.
	OnLoadDiscarded(ctx context.Context, generation uint64)
	OnPipeline(stats PipelineStats, duration time.Duration)
	OnRendererError(op string, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cached sources.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, key string)
	OnCacheMiss(ctx context.Context, key string)
	OnCacheSet(ctx context.Context, key string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the API client.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	// OnError records a transport failure (no response received).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEngineHooks ignores every engine event.
type NoopEngineHooks struct{}

func (NoopEngineHooks) OnLoadStart(context.Context, uint64) {}
func (NoopEngineHooks) OnLoadComplete(context.Context, uint64, LoadStats, time.Duration, error) {
}
func (NoopEngineHooks) OnLoadDiscarded(context.Context, uint64) {}
func (NoopEngineHooks) OnPipeline(PipelineStats, time.Duration) {}
func (NoopEngineHooks) OnRendererError(string, error)           {}

// NoopCacheHooks ignores every cache event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every HTTP event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	engineHooks EngineHooks = NoopEngineHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
	hooksMu     sync.RWMutex
)

// SetEngineHooks registers engine hooks. Nil is ignored.
func SetEngineHooks(h EngineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		engineHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Engine returns the registered engine hooks.
func Engine() EngineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return engineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores the no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	engineHooks = NoopEngineHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
