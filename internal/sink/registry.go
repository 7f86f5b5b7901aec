// Package sink implements the Sink Session & Dispatch Engine: the single
// active sink slot (Registry), the per-connection protocol state machine
// (Session), and the job dispatch operation that bridges HTTP submitters to
// the sink over the wire codec defined in the root promptivd package.
package sink

import (
	"sync"

	"github.com/midsbie/promptivd"
	"github.com/midsbie/promptivd/internal/metrics"
)

// Registry holds at most one active Session. Cardinality invariant:
// |slot| is 0 or 1 at all times. Dispatchers borrow the current session
// under a read lock; registration, supersession and cleanup take the write
// lock.
type Registry struct {
	mu      sync.RWMutex
	current *Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Publish atomically installs s as the current session. If a session is
// already active and supersede is false, publication fails with
// sink_registration_failed and s is not installed. If supersede is true,
// the prior session is evicted and returned so its waiters can be drained
// before s becomes visible to dispatchers.
func (r *Registry) Publish(s *Session, supersede bool) (evicted *Session, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		if !supersede {
			return nil, promptivd.NewAppError(promptivd.ErrSinkRegistrationFailed, "a sink is already registered")
		}
		evicted = r.current
	}
	r.current = s
	metrics.SinkConnected.Set(1)
	return evicted, nil
}

// Take atomically removes and returns the current session, used on
// disconnect or fatal protocol error. It is a no-op (returns nil) if s is
// not the current session — this happens when s was already superseded.
func (r *Registry) Take(s *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != s {
		return nil
	}
	r.current = nil
	metrics.SinkConnected.Set(0)
	return s
}

// Current returns the active session, or nil if none is registered. The
// borrow must be short-lived: callers must not block the caller's own
// processing on it for long, per the locking-order contract in the
// concurrency model.
func (r *Registry) Current() *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}
