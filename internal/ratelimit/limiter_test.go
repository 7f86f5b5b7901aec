package ratelimit

import "testing"

func TestLimiter_AllowsWithinBurst(t *testing.T) {
	l := New(1, 3)
	for i := 0; i < 3; i++ {
		if !l.Allow("client-a") {
			t.Fatalf("expected request %d to be allowed within burst", i)
		}
	}
}

func TestLimiter_RejectsBeyondBurst(t *testing.T) {
	l := New(1, 2)
	l.Allow("client-a")
	l.Allow("client-a")
	if l.Allow("client-a") {
		t.Fatal("expected third rapid request to be rejected")
	}
}

func TestLimiter_PerClientIsolation(t *testing.T) {
	l := New(1, 1)
	if !l.Allow("client-a") {
		t.Fatal("expected first request for client-a to be allowed")
	}
	if !l.Allow("client-b") {
		t.Fatal("expected client-b to have its own independent bucket")
	}
	if l.Allow("client-a") {
		t.Fatal("expected second rapid request for client-a to be rejected")
	}
}
