package batch

import (
	"sync"

	"github.com/go-logr/logr"

	"skelpack/internal/skeleton"
)

// SkeletonCache is a concurrency-safe cache of runtime skeletons keyed by
// path. Skeletons are read-only so workers share them.
type SkeletonCache struct {
	mu      sync.RWMutex
	items   map[string]*cacheEntry
	builder skeleton.Builder
	log     logr.Logger
}

type cacheEntry struct {
	skel *skeleton.Skeleton
	err  error // remembered so a broken file is read once
}

// NewSkeletonCache creates a cache that builds skeletons with b.
func NewSkeletonCache(b skeleton.Builder, log logr.Logger) *SkeletonCache {
	return &SkeletonCache{
		items:   make(map[string]*cacheEntry),
		builder: b,
		log:     log,
	}
}

// Resolve loads and caches the skeleton at path.
func (c *SkeletonCache) Resolve(path string) (*skeleton.Skeleton, error) {
	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.skel, entry.err
	}
	c.mu.RUnlock()

	// Slow path: load from disk
	skel, err := LoadSkeleton(path, c.builder, c.log)

	// Write lock with double-check
	c.mu.Lock()
	if entry, exists := c.items[path]; exists {
		c.mu.Unlock()
		if skel != nil {
			skel.Release()
		}
		return entry.skel, entry.err
	}
	c.items[path] = &cacheEntry{skel: skel, err: err}
	c.mu.Unlock()

	return skel, err
}

// Close releases every cached skeleton.
func (c *SkeletonCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for path, entry := range c.items {
		if entry.skel != nil {
			entry.skel.Release()
		}
		delete(c.items, path)
	}
}
