package ratelimit

import (
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for deterministic window tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestAllowWithinWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := New(3, time.Minute, clock.now)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("client") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("client") {
		t.Fatal("fourth request in the window should be denied")
	}
}

func TestWindowResets(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := New(1, time.Minute, clock.now)
	defer l.Stop()

	if !l.Allow("client") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("client") {
		t.Fatal("second request should be denied")
	}
	clock.advance(time.Minute)
	if !l.Allow("client") {
		t.Fatal("request in the next window should be allowed")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := New(1, time.Minute, clock.now)
	defer l.Stop()

	if !l.Allow("a") || !l.Allow("b") {
		t.Fatal("distinct keys must not share a bucket")
	}
}

func TestSweepDropsExpiredBuckets(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := New(1, time.Minute, clock.now)
	defer l.Stop()

	l.Allow("a")
	l.Allow("b")
	if got := l.Len(); got != 2 {
		t.Fatalf("expected 2 buckets, got %d", got)
	}
	clock.advance(2 * time.Minute)
	l.sweep()
	if got := l.Len(); got != 0 {
		t.Fatalf("expected sweep to drop expired buckets, got %d", got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	l := New(1, time.Minute, nil)
	l.Start(time.Millisecond)
	l.Stop()
	l.Stop()
}
