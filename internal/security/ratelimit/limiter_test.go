package ratelimit

import (
	"runtime"
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := NewLimiter(3, time.Minute)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("user-1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("user-1") {
		t.Fatalf("fourth request should be rejected")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Stop()

	if !l.Allow("user-1") {
		t.Fatalf("first request for user-1 should be allowed")
	}
	if !l.Allow("user-2") {
		t.Fatalf("user-2 should have an independent bucket")
	}
	if l.Allow("user-1") {
		t.Fatalf("second request for user-1 should be rejected")
	}
}

func TestEmptyKeyAlwaysAllowed(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		if !l.Allow("") {
			t.Fatalf("empty key must never be limited")
		}
	}
}

func TestStopReleasesCleanupGoroutine(t *testing.T) {
	before := runtime.NumGoroutine()

	l := NewLimiter(1, time.Minute)
	l.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= before {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("cleanup goroutine still running after Stop")
}

func TestWindowExpiry(t *testing.T) {
	l := NewLimiter(1, 50*time.Millisecond)
	defer l.Stop()

	if !l.Allow("user-1") {
		t.Fatalf("first request should be allowed")
	}
	if l.Allow("user-1") {
		t.Fatalf("second request inside window should be rejected")
	}
	time.Sleep(60 * time.Millisecond)
	if !l.Allow("user-1") {
		t.Fatalf("request after window should be allowed")
	}
}
