package cache

import (
	"sync"
	"testing"
	"time"
)

func TestCache_BasicOperations(t *testing.T) {
	c := New[[]string](5*time.Minute, 10*time.Minute)

	t.Run("Set and Get", func(t *testing.T) {
		c.Set("P214\x00113230702", []string{"Q42"})

		val, found := c.Get("P214\x00113230702")
		if !found {
			t.Fatal("expected key to be found")
		}
		if len(val) != 1 || val[0] != "Q42" {
			t.Errorf("expected [Q42], got %v", val)
		}
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		if _, found := c.Get("nonexistent"); found {
			t.Error("expected nonexistent key to not be found")
		}
	})

	t.Run("Set and Delete", func(t *testing.T) {
		c.Set("key2", nil)
		c.Delete("key2")
		if _, found := c.Get("key2"); found {
			t.Error("expected key2 to be deleted")
		}
	})

	t.Run("Stats", func(t *testing.T) {
		s := c.Stats()
		if s.Items != 1 {
			t.Errorf("expected 1 item, got %d", s.Items)
		}
		if s.Hits != 1 || s.Misses != 2 {
			t.Errorf("expected 1 hit and 2 misses, got %+v", s)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		c.Clear()
		if c.Stats().Items != 0 {
			t.Error("expected empty cache after Clear")
		}
	})
}

func TestCache_SetWithTTL(t *testing.T) {
	c := New[int](time.Hour, time.Hour)
	c.SetWithTTL("short", 1, 10*time.Millisecond)
	c.Set("long", 2)

	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get("short"); found {
		t.Error("expected short-lived entry to expire")
	}
	if v, found := c.Get("long"); !found || v != 2 {
		t.Errorf("expected long entry to survive, got %v %v", v, found)
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := New[int](time.Minute, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Set("k", n)
			c.Get("k")
		}(i)
	}
	wg.Wait()
	if _, found := c.Get("k"); !found {
		t.Error("expected key to be present")
	}
}
