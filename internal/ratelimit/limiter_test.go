package ratelimit

import (
	"testing"
	"time"
)

func testConfig(window time.Duration, max int) Config {
	return Config{Window: window, MaxRequests: max, KeyPrefix: "test"}
}

func TestLimiterAllowsUntilMaxThenRejects(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiterWithClock(func() time.Time { return now })
	cfg := testConfig(time.Minute, 2)

	seq := []bool{true, true, false}
	for i, want := range seq {
		res := l.Check("caller", cfg)
		if res.Allowed != want {
			t.Fatalf("check %d: allowed = %v, want %v", i+1, res.Allowed, want)
		}
		if res.Limit != 2 {
			t.Fatalf("check %d: limit = %d, want 2", i+1, res.Limit)
		}
	}
}

func TestLimiterRemainingCountsDown(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiterWithClock(func() time.Time { return now })
	cfg := testConfig(time.Minute, 3)

	for i, want := range []int{2, 1, 0} {
		res := l.Check("caller", cfg)
		if res.Remaining != want {
			t.Fatalf("check %d: remaining = %d, want %d", i+1, res.Remaining, want)
		}
	}

	// Rejected checks keep reporting zero.
	res := l.Check("caller", cfg)
	if res.Allowed || res.Remaining != 0 {
		t.Fatalf("rejected check: allowed=%v remaining=%d", res.Allowed, res.Remaining)
	}
}

func TestLimiterRejectionDoesNotExtendWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiterWithClock(func() time.Time { return now })
	cfg := testConfig(time.Minute, 1)

	first := l.Check("caller", cfg)
	if !first.Allowed {
		t.Fatal("first check should be allowed")
	}
	rejected := l.Check("caller", cfg)
	if rejected.Allowed {
		t.Fatal("second check should be rejected")
	}
	if !rejected.ResetAt.Equal(first.ResetAt) {
		t.Fatalf("rejection moved resetAt: %v != %v", rejected.ResetAt, first.ResetAt)
	}
}

func TestLimiterWindowExpiryStartsFresh(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiterWithClock(func() time.Time { return now })
	cfg := testConfig(time.Minute, 1)

	l.Check("caller", cfg)
	if res := l.Check("caller", cfg); res.Allowed {
		t.Fatal("expected rejection inside window")
	}

	now = now.Add(time.Minute)
	res := l.Check("caller", cfg)
	if !res.Allowed {
		t.Fatal("expected fresh window after expiry")
	}
	if want := now.Add(time.Minute); !res.ResetAt.Equal(want) {
		t.Fatalf("resetAt = %v, want %v", res.ResetAt, want)
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiterWithClock(func() time.Time { return now })
	cfg := testConfig(time.Minute, 1)

	l.Check("alice", cfg)
	if res := l.Check("bob", cfg); !res.Allowed {
		t.Fatal("bob should have his own window")
	}

	other := Config{Window: time.Minute, MaxRequests: 1, KeyPrefix: "other"}
	if res := l.Check("alice", other); !res.Allowed {
		t.Fatal("same key under a different prefix should have its own counter")
	}
}

func TestLimiterReset(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiterWithClock(func() time.Time { return now })
	cfg := testConfig(time.Minute, 1)

	l.Check("caller", cfg)
	l.Reset("caller", cfg)
	if res := l.Check("caller", cfg); !res.Allowed {
		t.Fatal("expected allowance after reset")
	}
}

func TestLimiterSweepDropsExpiredCounters(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiterWithClock(func() time.Time { return now })
	l.sweepChance = 1 // sweep on every check
	cfg := testConfig(time.Minute, 5)

	l.Check("a", cfg)
	l.Check("b", cfg)
	if got := l.Len(); got != 2 {
		t.Fatalf("len = %d, want 2", got)
	}

	now = now.Add(2 * time.Minute)
	l.Check("c", cfg)
	if got := l.Len(); got != 1 {
		t.Fatalf("len after sweep = %d, want 1", got)
	}
}
