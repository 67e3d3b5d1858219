package cache

import (
	"strings"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}

	// "b" is now least recently used
	c.Set("c", "3")
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}

	c.Set("a", "updated")
	if v, _ := c.Get("a"); v != "updated" {
		t.Fatalf("Get(a) = %q after overwrite", v)
	}
}

func TestLRUCache_OnEvict(t *testing.T) {
	c, clock := newTestCache(2, time.Minute)
	var evicted []string
	c.OnEvict(func(key, data string) { evicted = append(evicted, key+"="+data) })

	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("a", "1b")
	c.Set("c", "3")
	if len(evicted) != 1 || evicted[0] != "b=2" {
		t.Fatalf("evicted = %v, want [b=2]", evicted)
	}

	// expired entries pushed out by the bound are not reported
	clock.advance(2 * time.Minute)
	c.Set("d", "4")
	if len(evicted) != 1 {
		t.Fatalf("evicted = %v, want no new entries", evicted)
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	clock.advance(30 * time.Second)
	c.Set("b", "2")
	clock.advance(45 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to be expired")
	}
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("CleanExpired() = %d, want 0 (a was already dropped by Get)", n)
	}
	clock.advance(time.Minute)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", n)
	}
}

func TestLRUCache_DeleteFunc(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("u1:all", "x")
	c.Set("u1:expense", "x")
	c.Set("u2:all", "x")

	n := c.DeleteFunc(func(k string) bool { return strings.HasPrefix(k, "u1:") })
	if n != 2 || c.Size() != 1 {
		t.Fatalf("DeleteFunc removed %d, size %d", n, c.Size())
	}
	c.Delete("u2:all")
	if c.Size() != 0 {
		t.Fatal("expected empty cache")
	}
}

func TestManager(t *testing.T) {
	c, clock := newTestCache(10, time.Second)
	c.Set("a", "1")
	clock.advance(2 * time.Second)

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("CleanNow() = %d, want 1", n)
	}

	m.StartCleanup(time.Millisecond)
	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()
}
