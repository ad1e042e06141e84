package cache

import (
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := New[string](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) = hit, want miss")
	}

	c.Set("a", "one")
	got, ok := c.Get("a")
	if !ok || got != "one" {
		t.Errorf("Get(a) = %q, %v, want one, true", got, ok)
	}

	c.Set("a", "two")
	got, _ = c.Get("a")
	if got != "two" {
		t.Errorf("Get(a) after overwrite = %q, want two", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestExpiry(t *testing.T) {
	c := New[int](10, 10*time.Millisecond)
	c.Set("k", 42)

	if _, ok := c.Get("k"); !ok {
		t.Fatal("Get(k) = miss before TTL")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("Get(k) = hit after TTL")
	}
	if c.Len() != 0 {
		t.Errorf("Len() after expiry = %d, want 0", c.Len())
	}
}

func TestEviction(t *testing.T) {
	c := New[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	// Touch a so b becomes the eviction candidate.
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("Get(b) = hit, want evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("Get(a) = miss, want kept")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("Get(c) = miss, want kept")
	}
}

func TestDelete(t *testing.T) {
	c := New[int](10, time.Minute)
	c.Set("k", 1)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Get(k) = hit after Delete")
	}
	// Deleting an absent key must not panic.
	c.Delete("absent")
}
