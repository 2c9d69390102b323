package cachemanager

import (
	"context"
	"sync/atomic"
	"time"
)

// Stats counts how a ReadThroughCache answered its lookups.
type Stats struct {
	Hits   int64
	Misses int64
	Errors int64
}

// ReadThroughCache serves values from a CacheManager and falls back to a
// loader on a miss, storing what the loader returns. Loader errors are
// returned unchanged and nothing is stored for them.
type ReadThroughCache[K comparable, V any, I any] struct {
	cache  CacheManager[K, V]
	load   func(ctx context.Context, input I) (V, error)
	bypass bool

	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

// NewReadThroughCache wraps cache. With bypass set every lookup goes
// straight to load and the cache is never touched.
func NewReadThroughCache[K comparable, V any, I any](
	cache CacheManager[K, V],
	load func(ctx context.Context, input I) (V, error),
	bypass bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{
		cache:  cache,
		load:   load,
		bypass: bypass,
	}
}

// Get returns the cached value for key or loads it from input.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	return r.lookup(ctx, key, input, ttl, func() (V, bool) {
		return r.cache.Get(ctx, key)
	})
}

// GetWithRefresh is Get, but a hit also restarts the entry's ttl.
func (r *ReadThroughCache[K, V, I]) GetWithRefresh(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	return r.lookup(ctx, key, input, ttl, func() (V, bool) {
		return r.cache.GetWithRefresh(ctx, key, ttl)
	})
}

// Stats returns the lookup counters so far.
func (r *ReadThroughCache[K, V, I]) Stats() Stats {
	return Stats{
		Hits:   r.hits.Load(),
		Misses: r.misses.Load(),
		Errors: r.errors.Load(),
	}
}

func (r *ReadThroughCache[K, V, I]) lookup(ctx context.Context, key K, input I, ttl time.Duration, cached func() (V, bool)) (V, error) {
	if !r.bypass {
		if value, ok := cached(); ok {
			r.hits.Add(1)
			return value, nil
		}
	}
	r.misses.Add(1)

	value, err := r.load(ctx, input)
	if err != nil {
		r.errors.Add(1)
		return value, err
	}
	if !r.bypass {
		r.cache.Set(ctx, key, value, ttl)
	}
	return value, nil
}
