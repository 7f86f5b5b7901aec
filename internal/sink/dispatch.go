package sink

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/midsbie/promptivd"
)

// Engine implements Dispatch(job), the operation that bridges the ingress
// adapter to the currently active sink. It holds no mutable state of its
// own beyond a reference to the registry; per-job state lives entirely in
// the waiter it registers on the active session.
type Engine struct {
	registry        *Registry
	dispatchTimeout time.Duration
}

// NewEngine builds a dispatch engine bound to registry, timing out each
// dispatch after timeout if the sink never acks.
func NewEngine(registry *Registry, timeout time.Duration) *Engine {
	return &Engine{registry: registry, dispatchTimeout: timeout}
}

// NewJobID generates a fresh, globally-unique job id.
func NewJobID() string {
	return uuid.NewString()
}

// Dispatch submits job to the active sink and awaits its ack, a dispatch
// timeout, or the sink disappearing mid-flight. It follows the ordering
// contract: the waiter is registered before the frame is enqueued, closing
// the ack-before-registration race.
func (e *Engine) Dispatch(ctx context.Context, job promptivd.Job) (promptivd.AckResponse, error) {
	session := e.registry.Current()
	if session == nil {
		return promptivd.AckResponse{}, promptivd.NewAppError(promptivd.ErrNoSink, "No sink connected")
	}

	waiter, err := session.RegisterWaiter(job.ID)
	if err != nil {
		return promptivd.AckResponse{}, err
	}

	var placement *promptivd.Placement
	if job.Request.Placement != nil {
		placement = job.Request.Placement
	}

	frame, err := promptivd.EncodeInsertTextFrame(promptivd.InsertTextFrame{
		ID: job.ID,
		Payload: promptivd.InsertTextPayload{
			Text:      job.Request.Text,
			Placement: placement,
			Source:    job.Request.Source,
			Target:    job.Request.Target,
			Metadata:  job.Request.Metadata,
		},
	})
	if err != nil {
		session.RemoveWaiter(job.ID)
		return promptivd.AckResponse{}, promptivd.NewAppError(promptivd.ErrSerialization, err.Error())
	}

	if err := session.Enqueue(frame); err != nil {
		session.RemoveWaiter(job.ID)
		return promptivd.AckResponse{}, promptivd.NewAppError(promptivd.ErrNoSink, "sink session closed before dispatch")
	}

	timer := time.NewTimer(e.dispatchTimeout)
	defer timer.Stop()

	select {
	case resp, ok := <-waiter:
		if !ok {
			return promptivd.AckResponse{}, promptivd.NewAppError(promptivd.ErrNoSink, "session ended without acking")
		}
		return resp, nil
	case <-timer.C:
		session.RemoveWaiter(job.ID)
		return promptivd.AckResponse{}, promptivd.DispatchTimeoutError(e.dispatchTimeout.Milliseconds())
	case <-ctx.Done():
		session.RemoveWaiter(job.ID)
		return promptivd.AckResponse{}, ctx.Err()
	}
}
