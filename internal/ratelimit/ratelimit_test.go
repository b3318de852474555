package ratelimit

import (
	"testing"
	"time"
)

// newTestLimiter returns a limiter with a controllable clock and no sweeper.
func newTestLimiter(now *time.Time) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		done:    make(chan struct{}),
		now:     func() time.Time { return *now },
	}
}

func TestAllowWithinWindow(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	for i := 1; i <= 3; i++ {
		if !l.Allow("1.2.3.4", 3, time.Minute) {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Allow("1.2.3.4", 3, time.Minute) {
		t.Fatal("4th request within window should be denied")
	}
}

func TestWindowExpiryResets(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	for i := 0; i < 3; i++ {
		l.Allow("k", 3, time.Minute)
	}
	if l.Allow("k", 3, time.Minute) {
		t.Fatal("should be denied before window expiry")
	}

	now = now.Add(61 * time.Second)

	if !l.Allow("k", 3, time.Minute) {
		t.Fatal("should be allowed after window expiry")
	}
	// Count was reset to 1; two more fit.
	if !l.Allow("k", 3, time.Minute) || !l.Allow("k", 3, time.Minute) {
		t.Fatal("count should have reset at window boundary")
	}
	if l.Allow("k", 3, time.Minute) {
		t.Fatal("4th request in new window should be denied")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	l.Allow("a", 1, time.Minute)
	if l.Allow("a", 1, time.Minute) {
		t.Fatal("key a should be exhausted")
	}
	if !l.Allow("b", 1, time.Minute) {
		t.Fatal("key b should be unaffected by key a")
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	l.Allow("old", 5, time.Minute)
	l.Allow("fresh", 5, time.Hour)

	now = now.Add(2 * time.Minute)

	// Run one sweep pass by hand.
	l.mu.Lock()
	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
		}
	}
	l.mu.Unlock()

	l.mu.Lock()
	_, oldOK := l.entries["old"]
	_, freshOK := l.entries["fresh"]
	l.mu.Unlock()

	if oldOK {
		t.Error("expired entry should have been swept")
	}
	if !freshOK {
		t.Error("unexpired entry should have been kept")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	l := New(time.Minute)
	l.Stop()
	l.Stop()
}
