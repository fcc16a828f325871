package cache

import (
	"sync"
	"testing"
)

func TestCache_GetSet(t *testing.T) {
	c := New[string, int](10)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("empty cache returned a value")
	}

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v; want 1, true", v, ok)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Fatalf("overwrite lost: got %d", v)
	}
}

func TestCache_GetOrCreate(t *testing.T) {
	c := New[int, string](10)

	calls := 0
	create := func() string {
		calls++
		return "made"
	}
	if got := c.GetOrCreate(1, create); got != "made" {
		t.Fatalf("GetOrCreate = %q", got)
	}
	if got := c.GetOrCreate(1, create); got != "made" {
		t.Fatalf("GetOrCreate (cached) = %q", got)
	}
	if calls != 1 {
		t.Fatalf("create called %d times, want 1", calls)
	}
}

func TestCache_SoftLimitEvictsOldest(t *testing.T) {
	c := New[int, int](8)
	for i := 0; i < 8; i++ {
		c.Set(i, i)
	}
	// Touch key 0 so it is the most recently used.
	c.Get(0)

	c.Set(100, 100)
	if c.Len() > 8 {
		t.Fatalf("Len = %d, want <= 8 after eviction", c.Len())
	}
	if _, ok := c.Get(0); !ok {
		t.Fatal("most recently used entry was evicted")
	}
	if _, ok := c.Get(100); !ok {
		t.Fatal("newest entry was evicted")
	}
}

func TestCache_UnlimitedNeverEvicts(t *testing.T) {
	c := New[int, int](0)
	for i := 0; i < 1000; i++ {
		c.Set(i, i)
	}
	if c.Len() != 1000 {
		t.Fatalf("Len = %d, want 1000", c.Len())
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New[string, int](0)
	c.Set("a", 1)

	if !c.Delete("a") {
		t.Fatal("Delete(a) = false")
	}
	if c.Delete("a") {
		t.Fatal("second Delete(a) = true")
	}

	c.Set("b", 2)
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Len after Clear = %d", c.Len())
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := New[int, int](64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := (g*200 + i) % 100
				c.GetOrCreate(k, func() int { return k })
				c.Get(k)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 64 {
		t.Fatalf("Len = %d exceeds soft limit", c.Len())
	}
}
