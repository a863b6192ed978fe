package ratelimit

import (
	"testing"
	"time"
)

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
		{name: "zero rate still honours burst", rps: 0, burst: 1, calls: 4, wantPass: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)
			defer rl.Stop()

			passed := 0
			for range tt.calls {
				if rl.Allow("203.0.113.7") {
					passed++
				}
			}
			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	if !rl.Allow("a") {
		t.Fatal("first request for a should pass")
	}
	if rl.Allow("a") {
		t.Error("second request for a should be limited")
	}
	if !rl.Allow("b") {
		t.Error("b should have its own bucket")
	}
}

func TestPerMinute(t *testing.T) {
	rl := PerMinute(3)
	defer rl.Stop()

	for i := range 3 {
		if !rl.Allow("ip") {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if rl.Allow("ip") {
		t.Error("fourth request within a minute should be limited")
	}
}

func TestKeyedRateLimiter_EvictIdle(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(5 * time.Minute)
	rl.Allow("fresh")
	now = now.Add(6 * time.Minute)

	rl.evictIdle()

	if got := rl.Len(); got != 1 {
		t.Fatalf("Len() = %d after eviction, want 1", got)
	}
	if !rl.Allow("old") {
		t.Error("evicted key should start with a full bucket")
	}
}

func TestKeyedRateLimiter_StopIdempotent(t *testing.T) {
	rl := New(1, 1)
	rl.Stop()
	rl.Stop()
}
