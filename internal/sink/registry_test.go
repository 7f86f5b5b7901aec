package sink

import "testing"

func TestRegistry_PublishWithoutPriorSink(t *testing.T) {
	r := NewRegistry()
	s := &Session{}
	evicted, err := r.Publish(s, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evicted != nil {
		t.Fatalf("expected no eviction on first publish, got %v", evicted)
	}
	if r.Current() != s {
		t.Fatal("expected published session to become current")
	}
}

func TestRegistry_PublishRejectedWithoutSupersede(t *testing.T) {
	r := NewRegistry()
	first := &Session{}
	second := &Session{}

	if _, err := r.Publish(first, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Publish(second, false); err == nil {
		t.Fatal("expected registration failure when a sink is already registered and supersede is disabled")
	}
	if r.Current() != first {
		t.Fatal("current session should remain unchanged after rejected publish")
	}
}

func TestRegistry_PublishSupersedes(t *testing.T) {
	r := NewRegistry()
	first := &Session{}
	second := &Session{}

	if _, err := r.Publish(first, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	evicted, err := r.Publish(second, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evicted != first {
		t.Fatal("expected the prior session to be evicted and returned")
	}
	if r.Current() != second {
		t.Fatal("expected the new session to become current")
	}
}

func TestRegistry_TakeOnlyRemovesIfCurrent(t *testing.T) {
	r := NewRegistry()
	first := &Session{}
	second := &Session{}
	r.Publish(first, false)

	// second was never published, so Take must be a no-op.
	if got := r.Take(second); got != nil {
		t.Fatal("expected Take to no-op for a non-current session")
	}
	if r.Current() != first {
		t.Fatal("current session should be untouched")
	}

	if got := r.Take(first); got != first {
		t.Fatal("expected Take to return the current session")
	}
	if r.Current() != nil {
		t.Fatal("expected registry to be empty after Take")
	}
}
