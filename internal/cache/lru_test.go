package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(maxSize int, ttl time.Duration) (*LRUCache[int], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](maxSize, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %d (ok=%v)", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	clock.t = clock.t.Add(30 * time.Second)
	c.Set("b", 3) // refresh b

	clock.t = clock.t.Add(45 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should have expired")
	}
	if v, ok := c.Get("b"); !ok || v != 3 {
		t.Fatalf("expected refreshed b=3, got %d (ok=%v)", v, ok)
	}

	clock.t = clock.t.Add(time.Hour)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 expired entry, got %d", n)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestLRUTake(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("token", 7)
	if v, ok := c.Take("token"); !ok || v != 7 {
		t.Fatalf("expected 7, got %d (ok=%v)", v, ok)
	}
	if _, ok := c.Take("token"); ok {
		t.Fatal("second Take must miss")
	}
}

func TestLRUDeletePrefix(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("pacing:2024-01", 1)
	c.Set("pacing:2024-02", 2)
	c.Set("pacing:2024-010", 3)
	c.Set("other", 4)

	if n := c.DeletePrefix("pacing:2024-01"); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	if _, ok := c.Get("pacing:2024-02"); !ok {
		t.Fatal("unrelated month must survive")
	}
	c.Delete("other")
	if c.Size() != 1 {
		t.Fatalf("expected 1 entry left, got %d", c.Size())
	}
}

func TestManagerSweep(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", 1)
	clock.t = clock.t.Add(2 * time.Minute)

	m := NewManager()
	m.Register("test", c)
	if n := m.sweep(); n != 1 {
		t.Fatalf("expected sweep to clean 1, got %d", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
