// ABOUTME: Tests for TTL expiry and insertion-order eviction
package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestCache_GetSet(t *testing.T) {
	c := New[string](time.Minute, 10)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for absent key")
	}

	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Errorf("Get = %q, %v; want v, true", got, ok)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New[int](time.Minute, 0)

	now := time.Now()
	c.SetClock(func() time.Time { return now })
	c.Set("k", 42)

	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	c.SetClock(func() time.Time { return now.Add(time.Minute) })
	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to be treated as absent")
	}
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	c := New[int](time.Hour, 3)

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	c.Set("k3", 3)

	if _, ok := c.Get("k0"); ok {
		t.Error("oldest entry should have been evicted")
	}
	for i := 1; i <= 3; i++ {
		if _, ok := c.Get(fmt.Sprintf("k%d", i)); !ok {
			t.Errorf("entry k%d should survive eviction", i)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c := New[int](time.Hour, 2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 3)

	if _, ok := c.Get("b"); !ok {
		t.Error("overwriting an existing key must not evict another entry")
	}
	if got, _ := c.Get("a"); got != 3 {
		t.Errorf("overwritten value = %d, want 3", got)
	}
}

func TestCache_Cleanup(t *testing.T) {
	c := New[int](time.Minute, 0)

	now := time.Now()
	c.SetClock(func() time.Time { return now })
	c.Set("old", 1)

	c.SetClock(func() time.Time { return now.Add(30 * time.Second) })
	c.Set("fresh", 2)

	c.SetClock(func() time.Time { return now.Add(70 * time.Second) })
	if dropped := c.Cleanup(); dropped != 1 {
		t.Errorf("Cleanup dropped %d, want 1", dropped)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("fresh entry should survive cleanup")
	}
	if c.Len() != 1 {
		t.Errorf("Len after cleanup = %d, want 1", c.Len())
	}
}
