package cache

import (
	"fmt"
	"testing"
	"time"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(maxSize int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 8, 27, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](maxSize, ttl)
	c.now = clock.now
	return c, clock
}

// TestLRUCacheEviction tests size-based eviction
func TestLRUCacheEviction(t *testing.T) {
	c, _ := newTestCache(3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Get("key1")           // key1 is now most recently used
	c.Set("key4", "value4") // evicts key2

	if _, found := c.Get("key2"); found {
		t.Error("key2 should have been evicted")
	}
	for _, k := range []string{"key1", "key3", "key4"} {
		if _, found := c.Get(k); !found {
			t.Errorf("%s should still exist", k)
		}
	}
	if c.Size() != 3 {
		t.Errorf("Size() = %d, want 3", c.Size())
	}
}

// TestLRUCacheTTLExpiration tests time-based expiration
func TestLRUCacheTTLExpiration(t *testing.T) {
	c, clock := newTestCache(100, 50*time.Millisecond)

	c.Set("key1", "value1")
	if _, found := c.Get("key1"); !found {
		t.Error("key1 should exist immediately")
	}

	clock.advance(60 * time.Millisecond)

	if _, found := c.Get("key1"); found {
		t.Error("key1 should have expired")
	}
}

// TestLRUCacheCleanExpired tests the cleanup mechanism
func TestLRUCacheCleanExpired(t *testing.T) {
	c, clock := newTestCache(100, 50*time.Millisecond)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	clock.advance(30 * time.Millisecond)
	c.Set("key3", "value3")
	clock.advance(30 * time.Millisecond)

	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("Expected 2 items cleaned, got %d", removed)
	}
	if _, found := c.Get("key3"); !found {
		t.Error("key3 should survive cleanup")
	}
}

func TestLRUCacheDeletePrefix(t *testing.T) {
	c, _ := newTestCache(100, time.Hour)
	c.Set("EMS|month|2025-08-27", "a")
	c.Set("EMS|all|2025-08-27", "b")
	c.Set("ESS|month|2025-08-27", "c")

	if removed := c.DeletePrefix("EMS|"); removed != 2 {
		t.Errorf("DeletePrefix removed %d, want 2", removed)
	}
	if _, found := c.Get("ESS|month|2025-08-27"); !found {
		t.Error("other company entries must survive")
	}
	c.Delete("ESS|month|2025-08-27")
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	a, clockA := newTestCache(10, time.Minute)
	b, clockB := newTestCache(10, time.Minute)
	a.Set("x", "1")
	b.Set("y", "2")
	b.Set("z", "3")
	clockA.advance(2 * time.Minute)
	clockB.advance(2 * time.Minute)

	m := NewManager()
	m.Register(a)
	m.Register(b)
	if n := m.CleanNow(); n != 3 {
		t.Errorf("CleanNow() = %d, want 3", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

// BenchmarkLRUCache benchmarks cache performance
func BenchmarkLRUCache(b *testing.B) {
	c := NewLRUCache[string](1000, time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("EMS|month|%d", i%50)
		if i%10 == 0 {
			c.Set(key, "dashboard")
		} else {
			c.Get(key)
		}
	}
}
