package ratelimit

import (
	"sync"
	"testing"
	"time"
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
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{name: "burst allows initial requests", rps: 1, burst: 3, calls: 3, wantPass: 3},
		{name: "exceeding burst blocks", rps: 1, burst: 2, calls: 5, wantPass: 2},
		{name: "single token", rps: 1, burst: 1, calls: 1, wantPass: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newClock()
			rl := New(tt.rps, tt.burst, WithClock(clock.Now))
			defer rl.Stop()

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if ok, _ := rl.Allow("test"); ok {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_RetryAfter(t *testing.T) {
	clock := newClock()
	rl := New(1, 1, WithClock(clock.Now))
	defer rl.Stop()

	if ok, _ := rl.Allow("ip"); !ok {
		t.Fatal("first request should pass")
	}

	ok, retry := rl.Allow("ip")
	if ok {
		t.Fatal("second request should be limited")
	}
	if retry <= 0 || retry > time.Second {
		t.Errorf("retry after = %v, want (0, 1s]", retry)
	}

	// A rejected request must not consume the token that refills next.
	clock.Advance(time.Second)
	if ok, _ := rl.Allow("ip"); !ok {
		t.Error("request after refill should pass")
	}
}

func TestKeyedRateLimiter_PerMinute(t *testing.T) {
	clock := newClock()
	rl := PerMinute(60, 1, WithClock(clock.Now))
	defer rl.Stop()

	rl.Allow("ip")
	if ok, _ := rl.Allow("ip"); ok {
		t.Fatal("bucket should be empty")
	}
	clock.Advance(time.Second)
	if ok, _ := rl.Allow("ip"); !ok {
		t.Error("60/min should refill one token per second")
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	rl.Allow("key1")
	if ok, _ := rl.Allow("key1"); ok {
		t.Error("key1 should be exhausted")
	}

	if ok, _ := rl.Allow("key2"); !ok {
		t.Error("key2 should be independent and allowed")
	}
}

func TestKeyedRateLimiter_Sweep(t *testing.T) {
	clock := newClock()
	rl := New(1, 1, WithClock(clock.Now), WithIdleTTL(time.Minute))
	defer rl.Stop()

	rl.Allow("old")
	clock.Advance(45 * time.Second)
	rl.Allow("fresh")
	clock.Advance(30 * time.Second)

	if removed := rl.Sweep(); removed != 1 {
		t.Errorf("Sweep() removed %d, want 1", removed)
	}
	if rl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", rl.Len())
	}

	// An evicted key starts with a full bucket again.
	if ok, _ := rl.Allow("old"); !ok {
		t.Error("evicted key should get a fresh bucket")
	}
}

func TestKeyedRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := New(1, 1)
	rl.Stop()
	rl.Stop()
}
