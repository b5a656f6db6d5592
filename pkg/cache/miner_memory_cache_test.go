package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoCacheSetGet(t *testing.T) {
	c := NewMemoCache(10, 0)
	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("Get(k) = %q, %v; want v, true", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get(missing) = true, want false")
	}
}

func TestMemoCacheEvictsOldestAtCapacity(t *testing.T) {
	c := NewMemoCache(3, 0)
	for i := 0; i < 4; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v")
	}
	if _, ok := c.Get("k0"); ok {
		t.Fatal("k0 should have been evicted")
	}
	if _, ok := c.Get("k3"); !ok {
		t.Fatal("k3 should be present")
	}
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
}

func TestMemoCacheUpdateDoesNotGrow(t *testing.T) {
	c := NewMemoCache(2, 0)
	c.Set("k", "v1")
	c.Set("k", "v2")
	if got, _ := c.Get("k"); got != "v2" {
		t.Fatalf("Get(k) = %q, want v2", got)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

func TestMemoCacheExpiry(t *testing.T) {
	c := NewMemoCache(10, 5*time.Millisecond)
	c.Set("k", "v")
	time.Sleep(10 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
}

func TestMemoCacheConcurrentOverwriteSingleKey(t *testing.T) {
	c := NewMemoCache(10, time.Hour)
	c.Set("k", "v0")
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				c.Set("k", fmt.Sprintf("v%d", n))
			}
		}(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if got, ok := c.Get("k"); !ok || got == "" {
					t.Error("Get(k) lost the entry during overwrite")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestMemoCacheConcurrentAccess(t *testing.T) {
	c := NewMemoCache(100, 0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k%d", j%50)
				c.Set(key, "v")
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
}
