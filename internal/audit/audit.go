// Package audit implements the best-effort, write-only audit log: a
// diagnostic record of every terminal job outcome, persisted to a
// pluggable SQL/NoSQL backend. It is never read back by the dispatch
// engine — it exists purely for operational visibility, not replay.
package audit

import (
	"context"
	"time"

	"github.com/midsbie/promptivd"
	"github.com/midsbie/promptivd/internal/metrics"
)

// Record is one terminal job outcome.
type Record struct {
	JobID        string
	Status       promptivd.AckStatus
	Error        string
	Client       string
	Label        string
	Path         string
	Provider     string
	DispatchedAt time.Time
	ResolvedAt   time.Time
	DurationMS   int64
	// Metadata is the job's caller-supplied metadata, JSON-encoded, with any
	// configured redact paths stripped and optionally zstd-compressed. Nil
	// when the job carried no metadata.
	Metadata []byte
}

// Backend persists records to a concrete store.
type Backend interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}

// Writer decouples the HTTP response path from the backend: Submit never
// blocks. A single goroutine drains a bounded channel and writes to the
// backend; if that channel is full, the record is dropped and a counter is
// incremented rather than applying backpressure to job dispatch.
type Writer struct {
	backend Backend
	queue   chan Record
	logger  promptivd.Logger
	done    chan struct{}
}

// NewWriter starts the writer goroutine against backend with the given
// queue capacity.
func NewWriter(backend Backend, capacity int, logger promptivd.Logger) *Writer {
	w := &Writer{
		backend: backend,
		queue:   make(chan Record, capacity),
		logger:  logger,
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Submit enqueues rec for asynchronous persistence. It never blocks the
// caller: if the queue is full the record is dropped.
func (w *Writer) Submit(rec Record) {
	select {
	case w.queue <- rec:
	default:
		metrics.AuditDroppedTotal.Inc()
		w.logger.Warn("audit queue full, dropping record", "job_id", rec.JobID)
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for rec := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := w.backend.Write(ctx, rec); err != nil {
			w.logger.Warn("audit write failed", "job_id", rec.JobID, "error", err.Error())
		}
		cancel()
	}
}

// Close stops accepting new records, waits for the queue to drain, and
// closes the backend.
func (w *Writer) Close() error {
	close(w.queue)
	<-w.done
	return w.backend.Close()
}

// NoopBackend discards every record and never returns an error; used when
// audit.driver is empty or "none".
type NoopBackend struct{}

func (NoopBackend) Write(context.Context, Record) error { return nil }
func (NoopBackend) Close() error                        { return nil }
