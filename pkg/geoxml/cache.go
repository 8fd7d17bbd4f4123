package geoxml

import (
	"container/list"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/beetlebugorg/geoxml/internal/kml"
)

// DefaultSizeCacheEntries is the capacity of the cache built by
// setDefaults.
const DefaultSizeCacheEntries = 1024

// SizeCache remembers natural icon image sizes with an LRU eviction policy.
//
// The resolver consults it synchronously before probing an image, so icons
// shared across documents and batches are only ever measured once.
//
// Example:
//
//	cache := geoxml.NewSizeCache(256)
//	size, err := cache.Load(url, func() (geoxml.Size, error) {
//	    return prober.Probe(ctx, url)
//	})
type SizeCache struct {
	maxEntries int
	entries    map[string]*sizeEntry
	lru        *list.List // most recent at front
	hits       int
	misses     int
	mu         sync.RWMutex
}

type sizeEntry struct {
	url          string
	size         kml.Size
	element      *list.Element
	lastAccessed time.Time
	accessCount  int
}

// NewSizeCache creates a cache holding at most maxEntries sizes. Zero means
// unlimited.
func NewSizeCache(maxEntries int) *SizeCache {
	return &SizeCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*sizeEntry),
		lru:        list.New(),
	}
}

// Get returns the cached size of url.
func (c *SizeCache) Get(url string) (kml.Size, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		c.misses++
		return kml.Size{}, false
	}
	c.hits++
	entry.lastAccessed = time.Now()
	entry.accessCount++
	c.lru.MoveToFront(entry.element)
	return entry.size, true
}

// Load returns the cached size of url, calling loader and caching its result
// on a miss. Loader errors are not cached.
func (c *SizeCache) Load(url string, loader func() (kml.Size, error)) (kml.Size, error) {
	if size, ok := c.Get(url); ok {
		return size, nil
	}
	size, err := loader()
	if err != nil {
		return kml.Size{}, errors.Wrapf(err, "load size of %.64s", url)
	}
	c.Add(url, size)
	return size, nil
}

// Add stores the size of url, evicting least-recently-used entries when the
// cache is full.
func (c *SizeCache) Add(url string, size kml.Size) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[url]; ok {
		entry.size = size
		entry.lastAccessed = time.Now()
		c.lru.MoveToFront(entry.element)
		return
	}

	if c.maxEntries > 0 {
		for c.lru.Len() >= c.maxEntries {
			c.evictLRU()
		}
	}

	entry := &sizeEntry{
		url:          url,
		size:         size,
		lastAccessed: time.Now(),
	}
	entry.element = c.lru.PushFront(entry)
	c.entries[url] = entry
}

// evictLRU removes the least recently used entry.
// Must be called with c.mu locked.
func (c *SizeCache) evictLRU() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*sizeEntry)
	c.lru.Remove(elem)
	delete(c.entries, entry.url)
}

// Remove drops url from the cache.
func (c *SizeCache) Remove(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[url]; ok {
		c.lru.Remove(entry.element)
		delete(c.entries, url)
	}
}

// Clear removes every entry and resets the counters.
func (c *SizeCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*sizeEntry)
	c.lru.Init()
	c.hits, c.misses = 0, 0
}

// Stats returns cache statistics.
func (c *SizeCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	totalAccess := 0
	for _, entry := range c.entries {
		totalAccess += entry.accessCount
	}
	return CacheStats{
		Entries:     len(c.entries),
		MaxEntries:  c.maxEntries,
		TotalAccess: totalAccess,
		Hits:        c.hits,
		Misses:      c.misses,
	}
}

// CacheStats holds cache metrics.
type CacheStats struct {
	Entries     int // Number of sizes currently cached
	MaxEntries  int // Capacity, 0 for unlimited
	TotalAccess int // Hits on entries still cached
	Hits        int
	Misses      int
}

// HitRate returns hits / (hits + misses), 0 before any lookup.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
