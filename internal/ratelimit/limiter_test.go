package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
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

func TestAllow_CapacityThenDeny(t *testing.T) {
	clock := newFakeClock()
	l := NewWithClock(DefaultConfig(), clock)

	for i := 0; i < 20; i++ {
		if !l.Allow("user-1") {
			t.Fatalf("call %d denied, want allowed", i+1)
		}
	}
	if l.Allow("user-1") {
		t.Fatal("21st call allowed, want denied")
	}
}

func TestAllow_RefillsAfterInterval(t *testing.T) {
	clock := newFakeClock()
	l := NewWithClock(DefaultConfig(), clock)

	for i := 0; i < 20; i++ {
		l.Allow("user-1")
	}
	if l.Allow("user-1") {
		t.Fatal("expected bucket to be empty")
	}

	clock.Advance(time.Minute)

	for i := 0; i < 20; i++ {
		if !l.Allow("user-1") {
			t.Fatalf("call %d after refill denied, want allowed", i+1)
		}
	}
	if l.Allow("user-1") {
		t.Fatal("refill must be capped at capacity")
	}
}

func TestAllow_PartialRefill(t *testing.T) {
	clock := newFakeClock()
	l := NewWithClock(DefaultConfig(), clock)

	for i := 0; i < 20; i++ {
		l.Allow("user-1")
	}

	// 20 tokens per minute is one token every 3 seconds.
	clock.Advance(3 * time.Second)
	if !l.Allow("user-1") {
		t.Fatal("expected one token after 3s")
	}
	if l.Allow("user-1") {
		t.Fatal("expected only one token after 3s")
	}
}

func TestAllow_SubjectsAreIndependent(t *testing.T) {
	l := NewWithClock(Config{Capacity: 1, Refill: 1, Interval: time.Hour}, newFakeClock())

	if !l.Allow("a") {
		t.Fatal("a: first call denied")
	}
	if l.Allow("a") {
		t.Fatal("a: second call allowed")
	}
	if !l.Allow("b") {
		t.Fatal("b should have its own bucket")
	}
}

func TestBucket_SameInstance(t *testing.T) {
	l := New(DefaultConfig())
	if l.Bucket("x") != l.Bucket("x") {
		t.Fatal("Bucket must return the same bucket for a subject")
	}
}

func TestAllow_Concurrent(t *testing.T) {
	l := NewWithClock(DefaultConfig(), newFakeClock())

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != 20 {
		t.Fatalf("allowed = %d, want 20", got)
	}
}

func TestNewWithClock_Defaults(t *testing.T) {
	l := NewWithClock(Config{}, newFakeClock())
	if l.cfg != DefaultConfig() {
		t.Errorf("cfg = %+v, want %+v", l.cfg, DefaultConfig())
	}
}
