package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	applog "budget/internal/log"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache(t, 2, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get() on empty cache should miss")
	}
	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("Get(a) = %q, %v; want 1, true", v, ok)
	}
	c.Set("a", "2")
	if v, _ := c.Get("a"); v != "2" {
		t.Errorf("Get(a) after overwrite = %q, want 2", v)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(t, 2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a") // b is now least recently used
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, key := range []string{"a", "c"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s should still be cached", key)
		}
	}
}

func TestLRUCache_Expiration(t *testing.T) {
	c, clock := newTestCache(t, 10, time.Minute)

	c.Set("a", "1")
	clock.Advance(30 * time.Second)
	c.Set("b", "2")

	clock.Advance(45 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("b should still be valid")
	}

	clock.Advance(time.Minute)
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUCache_Delete(t *testing.T) {
	c, _ := newTestCache(t, 10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	c.Delete("a")
	c.Delete("missing")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be deleted")
	}
	if c.Size() != 1 {
		t.Errorf("Size() after Delete = %d, want 1", c.Size())
	}
}

func TestNewLRUCache_MinimumSize(t *testing.T) {
	c := NewLRUCache[int](0, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestManager_Sweep(t *testing.T) {
	c1, clock1 := newTestCache(t, 10, time.Second)
	c2, _ := newTestCache(t, 10, time.Hour)
	c1.Set("a", "1")
	c1.Set("b", "2")
	c2.Set("c", "3")
	clock1.Advance(2 * time.Second)

	m := NewManager(applog.Discard())
	m.Register(c1)
	m.Register(c2)

	if n := m.Sweep(); n != 2 {
		t.Errorf("Sweep() = %d, want 2", n)
	}
	if c2.Size() != 1 {
		t.Errorf("unexpired cache lost entries: size %d", c2.Size())
	}
}

func TestManager_RunStopsOnCancel(t *testing.T) {
	m := NewManager(applog.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestLoader_CachesValues(t *testing.T) {
	c, _ := newTestCache(t, 10, time.Minute)
	l := NewLoader[string](c)

	calls := 0
	load := func() (string, error) {
		calls++
		return "value", nil
	}

	v, hit, err := l.Get("k", load)
	if err != nil || hit || v != "value" {
		t.Fatalf("first Get() = %q, %v, %v", v, hit, err)
	}
	v, hit, err = l.Get("k", load)
	if err != nil || !hit || v != "value" {
		t.Fatalf("second Get() = %q, %v, %v", v, hit, err)
	}
	if calls != 1 {
		t.Errorf("load called %d times, want 1", calls)
	}

	l.Forget("k")
	if _, hit, _ := l.Get("k", load); hit {
		t.Error("Get() after Forget should miss")
	}
}

func TestLoader_DoesNotCacheErrors(t *testing.T) {
	c, _ := newTestCache(t, 10, time.Minute)
	l := NewLoader[string](c)
	boom := errors.New("boom")

	if _, _, err := l.Get("k", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("Get() error = %v, want boom", err)
	}
	if c.Size() != 0 {
		t.Errorf("failed load was cached")
	}
}

func TestLoader_CollapsesConcurrentMisses(t *testing.T) {
	c, _ := newTestCache(t, 10, time.Minute)
	l := NewLoader[string](c)

	var calls atomic.Int32
	release := make(chan struct{})
	load := func() (string, error) {
		calls.Add(1)
		<-release
		return "value", nil
	}

	const workers = 8
	var started, wg sync.WaitGroup
	started.Add(workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			started.Done()
			if v, _, err := l.Get("k", load); err != nil || v != "value" {
				t.Errorf("Get() = %q, %v", v, err)
			}
		}()
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("load called %d times, want 1", n)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}
