package source

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/dogeow/wikigraph/pkg/cache"
	"github.com/dogeow/wikigraph/pkg/observability"
)

// DefaultTTL is how long a cached graph document stays fresh.
const DefaultTTL = 5 * time.Minute

// Cached serves fetches from a cache, falling through to the wrapped
// source on a miss. Concurrent misses share one upstream fetch.
type Cached struct {
	src    Source
	cache  cache.Cache
	key    string
	ttl    time.Duration
	logger *log.Logger
	group  singleflight.Group
}

var _ Source = (*Cached)(nil)

// NewCached wraps src. The key identifies the upstream, for example
// cache.Key("graph", baseURL). A nil cache disables caching.
func NewCached(src Source, c cache.Cache, key string, ttl time.Duration, logger *log.Logger) *Cached {
	if c == nil {
		c = cache.NewNull()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Cached{src: src, cache: c, key: key, ttl: ttl, logger: logger}
}

// Fetch returns the cached document or fetches and stores a fresh one.
// Cache read and write failures are logged and otherwise ignored.
func (s *Cached) Fetch(ctx context.Context) ([]byte, error) {
	data, ok, err := s.cache.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("cache read failed", "key", s.key, "err", err)
	}
	if ok {
		s.logger.Debug("cache hit", "key", s.key)
		observability.Cache().OnCacheHit(ctx, s.key)
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, s.key)

	v, err, shared := s.group.Do(s.key, func() (any, error) {
		data, err := s.src.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, s.key, data, s.ttl); err != nil {
			s.logger.Warn("cache write failed", "key", s.key, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, s.key, len(data))
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("cache miss", "key", s.key, "shared", shared)
	return v.([]byte), nil
}

// Invalidate drops the cached document so the next fetch goes upstream.
func (s *Cached) Invalidate(ctx context.Context) error {
	s.group.Forget(s.key)
	return s.cache.Delete(ctx, s.key)
}
