package cachemanager

import (
	"context"
	"regexp"
	"time"
)

// PatternCache memoizes compiled regular expressions by their source text.
// Compile has the signature of regexp.Compile so it can be handed to the
// library as its pattern compiler. Invalid patterns are never cached and
// their error is returned unchanged.
type PatternCache struct {
	reader *ReadThroughCache[string, *regexp.Regexp, string]
	store  *InMemoryCacheManager[string, *regexp.Regexp]
	ttl    time.Duration
}

// NewPatternCache creates a pattern cache whose entries live for ttl after
// their last use. With disabled set every call compiles afresh.
func NewPatternCache(ttl, cleanupInterval time.Duration, disabled bool) *PatternCache {
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	store := NewInMemoryCacheManager[string, *regexp.Regexp]("patterns", ttl, cleanupInterval)
	compile := func(_ context.Context, pattern string) (*regexp.Regexp, error) {
		return regexp.Compile(pattern)
	}
	return &PatternCache{
		reader: NewReadThroughCache[string, *regexp.Regexp, string](store, compile, disabled),
		store:  store,
		ttl:    ttl,
	}
}

// Compile returns the compiled form of pattern, from cache when possible.
func (p *PatternCache) Compile(pattern string) (*regexp.Regexp, error) {
	return p.reader.GetWithRefresh(context.Background(), pattern, pattern, p.ttl)
}

// Len returns the number of cached patterns.
func (p *PatternCache) Len() int {
	return p.store.Len()
}

// Stats returns hit and miss counts. Misses include invalid patterns.
func (p *PatternCache) Stats() Stats {
	return p.reader.Stats()
}

// Flush drops every cached pattern.
func (p *PatternCache) Flush() {
	_ = p.store.Flush(context.Background())
}
