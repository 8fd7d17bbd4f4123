package geoxml

import (
	"errors"
	"testing"

	"github.com/beetlebugorg/geoxml/internal/kml"
)

func TestCacheBasic(t *testing.T) {
	cache := NewSizeCache(16)

	// Test empty cache
	stats := cache.Stats()
	if stats.Entries != 0 {
		t.Errorf("Expected empty cache, got %d entries", stats.Entries)
	}

	// Test cache miss and load
	loadCount := 0
	size, err := cache.Load("icon.png", func() (kml.Size, error) {
		loadCount++
		return kml.Size{W: 32, H: 37}, nil
	})
	if err != nil {
		t.Fatalf("Failed to load size: %v", err)
	}
	if size.W != 32 || size.H != 37 {
		t.Errorf("Expected 32x37, got %vx%v", size.W, size.H)
	}
	if loadCount != 1 {
		t.Errorf("Expected loader called once, got %d times", loadCount)
	}

	// Test cache hit
	size, err = cache.Load("icon.png", func() (kml.Size, error) {
		loadCount++
		return kml.Size{W: 1, H: 1}, nil
	})
	if err != nil {
		t.Fatalf("Failed to get cached size: %v", err)
	}
	if size.W != 32 {
		t.Errorf("Expected cached width 32, got %v", size.W)
	}
	if loadCount != 1 {
		t.Errorf("Expected loader not called for cache hit, called %d times", loadCount)
	}
}

func TestCacheLoaderError(t *testing.T) {
	cache := NewSizeCache(16)
	boom := errors.New("boom")

	_, err := cache.Load("broken.png", func() (kml.Size, error) {
		return kml.Size{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected loader error to be wrapped, got %v", err)
	}
	if _, ok := cache.Get("broken.png"); ok {
		t.Error("Errors must not be cached")
	}
}

func TestCacheEviction(t *testing.T) {
	cache := NewSizeCache(3)

	for i := 0; i < 10; i++ {
		name := string(rune('A' + i))
		cache.Add(name, kml.Size{W: float64(i), H: float64(i)})
	}

	stats := cache.Stats()
	if stats.Entries != 3 {
		t.Errorf("Expected 3 entries after eviction, got %d", stats.Entries)
	}
	if _, ok := cache.Get("A"); ok {
		t.Error("Expected oldest entry to be evicted")
	}
	if _, ok := cache.Get("J"); !ok {
		t.Error("Expected newest entry to be cached")
	}
}

func TestCacheLRUOrder(t *testing.T) {
	cache := NewSizeCache(2)
	cache.Add("A", kml.Size{W: 1, H: 1})
	cache.Add("B", kml.Size{W: 2, H: 2})

	// Touch A so B becomes least recently used
	cache.Get("A")
	cache.Add("C", kml.Size{W: 3, H: 3})

	if _, ok := cache.Get("B"); ok {
		t.Error("Expected B to be evicted")
	}
	if _, ok := cache.Get("A"); !ok {
		t.Error("Expected A to survive")
	}
}

func TestCacheClear(t *testing.T) {
	cache := NewSizeCache(0)

	for i := 0; i < 5; i++ {
		cache.Add(string(rune('A'+i)), kml.Size{W: 1, H: 1})
	}
	if cache.Stats().Entries != 5 {
		t.Errorf("Expected 5 entries, got %d", cache.Stats().Entries)
	}

	cache.Clear()

	stats := cache.Stats()
	if stats.Entries != 0 {
		t.Errorf("Expected empty cache after clear, got %d entries", stats.Entries)
	}
	if stats.Hits != 0 || stats.Misses != 0 {
		t.Errorf("Expected counters reset, got %d hits %d misses", stats.Hits, stats.Misses)
	}
}

func TestCacheRemove(t *testing.T) {
	cache := NewSizeCache(16)
	cache.Add("test", kml.Size{W: 1, H: 1})

	cache.Remove("test")

	if cache.Stats().Entries != 0 {
		t.Errorf("Expected empty cache after remove, got %d entries", cache.Stats().Entries)
	}
}

func TestCacheStats(t *testing.T) {
	cache := NewSizeCache(16)
	cache.Add("A", kml.Size{W: 1, H: 1})

	cache.Get("A")
	cache.Get("A")
	cache.Get("missing")

	stats := cache.Stats()
	if stats.Hits != 2 {
		t.Errorf("Expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
	if stats.TotalAccess != 2 {
		t.Errorf("Expected 2 accesses, got %d", stats.TotalAccess)
	}
	if rate := stats.HitRate(); rate < 0.66 || rate > 0.67 {
		t.Errorf("Expected hit rate 2/3, got %f", rate)
	}
}
