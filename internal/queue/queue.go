// Package queue provides a bounded, closable byte-frame queue used as the
// outbound pump between job producers (the dispatch engine, the liveness
// ticker) and a sink session's writer goroutine.
package queue

import (
	"errors"
	"sync"
)

// ErrClosed is the error value for a closed queue. Queue's own methods do
// not return it: TryPush reports a closed queue by returning false.
var ErrClosed = errors.New("queue closed")

// Queue is a fixed-capacity channel of frames with idempotent Close. It
// favors rejecting a full queue over growing without bound: callers decide
// what "full" means for their session (the bounded outbound queue policy
// closes the session entirely).
type Queue struct {
	ch   chan []byte
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

// New returns an empty queue with the given capacity.
func New(capacity int) *Queue {
	return &Queue{
		ch:   make(chan []byte, capacity),
		done: make(chan struct{}),
	}
}

// TryPush attempts a non-blocking enqueue. It returns false both when the
// queue is closed and when it is full — callers distinguish the two via
// Closed() if they need to.
func (q *Queue) TryPush(frame []byte) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.mu.Unlock()

	select {
	case q.ch <- frame:
		return true
	default:
		return false
	}
}

// C returns the receive side of the queue, for a writer loop's select.
func (q *Queue) C() <-chan []byte {
	return q.ch
}

// Len reports the number of frames currently buffered, for gauge metrics.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Closed reports whether Close has already run.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close idempotently closes the queue, waking any blocked readers. It does
// not close the underlying channel: a concurrent TryPush may already have
// passed the closed check and be about to send, and closing the channel out
// from under it would panic. Readers must select on Done() (or an
// equivalent session-level close signal) alongside C() to notice closure.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Done returns a channel that is closed once Close has run.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}
