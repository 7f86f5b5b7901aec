package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/google/uuid"

	"github.com/midsbie/promptivd"
	"github.com/midsbie/promptivd/internal/metrics"
	"github.com/midsbie/promptivd/internal/queue"
)

// Config parameterizes a Session's policy: supersession behavior, body size
// cap advertised to the sink, liveness timing, and outbound queue capacity.
type Config struct {
	SupersedeOnRegister   bool
	MaxJobBytes           int64
	PingInterval          time.Duration
	PongTimeout           time.Duration
	MaxMissedPings        int
	OutboundQueueCapacity int
}

// state is the session's position in the protocol state machine described
// in the component design.
type state int

const (
	stateInit state = iota
	stateRegistered
	stateClosing
)

// Session owns one bidirectional WebSocket connection to a sink and
// implements the reader/writer/liveness-ticker trio that make up its
// protocol state machine. A Session is created per connection and is
// discarded once closed; it is never reused.
type Session struct {
	id       string
	conn     *websocket.Conn
	cfg      Config
	registry *Registry
	logger   promptivd.Logger

	outbound *queue.Queue

	mu           sync.Mutex
	state        state
	sinkConn     *promptivd.SinkConnection
	awaitingPong bool
	lastPingAt   time.Time
	missedPings  int

	waitersMu sync.Mutex
	waiters   map[string]chan promptivd.AckResponse

	closeOnce sync.Once
	closed    chan struct{}
}

// NewSession wraps an already-upgraded WebSocket connection.
func NewSession(conn *websocket.Conn, registry *Registry, cfg Config, logger promptivd.Logger) *Session {
	return &Session{
		id:       uuid.NewString(),
		conn:     conn,
		cfg:      cfg,
		registry: registry,
		logger:   logger,
		outbound: queue.New(cfg.OutboundQueueCapacity),
		waiters:  make(map[string]chan promptivd.AckResponse),
		closed:   make(chan struct{}),
	}
}

// SinkConnection returns the registration this session published, or nil if
// it never reached the registered state.
func (s *Session) SinkConnection() *promptivd.SinkConnection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sinkConn
}

// Run drives the session to completion: it starts the reader, writer and
// liveness ticker, and blocks until the session closes (by protocol
// decision, disconnect, or ctx cancellation). It always returns after full
// cleanup — registry removal and waiter draining — has happened.
func (s *Session) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.readLoop()
	}()
	go func() {
		defer wg.Done()
		s.writeLoop()
	}()

	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ticker.C:
			s.tickLiveness()
		case <-s.closed:
			break loop
		case <-ctx.Done():
			s.close("server shutting down")
			break loop
		}
	}

	wg.Wait()
}

func (s *Session) readLoop() {
	first := true
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.close("sink disconnected")
			return
		}

		if first {
			first = false
			if err := s.handleFirstFrame(data); err != nil {
				s.logger.Warn("sink registration failed", "session", s.id, "error", err.Error())
				s.closeWithoutPublishing()
				return
			}
			continue
		}

		s.handleFrame(data)
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case frame := <-s.outbound.C():
			metrics.OutboundQueueDepth.Set(float64(s.outbound.Len()))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.close("write error")
				return
			}
		case <-s.closed:
			return
		case <-s.outbound.Done():
			return
		}
	}
}

// handleFirstFrame enforces that registration is the first frame observed;
// any other frame type, or a register with a mismatched schema version, is
// a fatal protocol error and the session is closed without ever becoming
// visible in the registry.
func (s *Session) handleFirstFrame(data []byte) error {
	version, err := promptivd.SchemaVersionOf(data)
	if err != nil || version == "" {
		return fmt.Errorf("missing or malformed schema_version on first frame")
	}
	if version != promptivd.SchemaVersion {
		return fmt.Errorf("register frame schema_version mismatch: %s", version)
	}

	typ, payload, err := promptivd.DecodeSinkFrame(data)
	if err != nil {
		return err
	}
	if typ != promptivd.FrameRegister {
		return fmt.Errorf("first frame must be register, got %q", typ)
	}

	reg := payload.(*promptivd.RegisterFrame)
	return s.register(reg)
}

// register publishes this session to the registry (handling supersession),
// and only on success pushes the policy frame and transitions to
// REGISTERED. Failure at any step leaves the session unregistered.
func (s *Session) register(f *promptivd.RegisterFrame) error {
	conn := promptivd.NewSinkConnection(uuid.NewString(), f.Version, f.Capabilities, f.Providers)

	evicted, err := s.registry.Publish(s, s.cfg.SupersedeOnRegister)
	if err != nil {
		return err
	}
	if evicted != nil {
		evicted.close("Superseded by new sink")
	}

	policy, err := promptivd.EncodePolicyFrame(promptivd.PolicyFrame{
		SupersedeOnRegister: s.cfg.SupersedeOnRegister,
		MaxJobBytes:         s.cfg.MaxJobBytes,
	})
	if err != nil {
		s.registry.Take(s)
		return err
	}
	if err := s.enqueue(policy); err != nil {
		s.registry.Take(s)
		return err
	}

	s.mu.Lock()
	s.sinkConn = &conn
	s.state = stateRegistered
	s.mu.Unlock()

	s.logger.Info("sink registered", "session", s.id, "sink_id", conn.ID, "version", conn.Version)
	return nil
}

func (s *Session) handleFrame(data []byte) {
	typ, payload, err := promptivd.DecodeSinkFrame(data)
	if err != nil {
		s.logger.Warn("dropping malformed frame", "session", s.id, "error", err.Error())
		return
	}
	if version, _ := promptivd.SchemaVersionOf(data); version != promptivd.SchemaVersion {
		s.logger.Warn("schema_version mismatch on inbound frame, processing anyway", "session", s.id, "type", typ, "schema_version", version)
	}

	s.noteLiveness()

	switch typ {
	case promptivd.FrameAck:
		ack := payload.(*promptivd.AckFrame)
		s.resolveWaiter(ack.ID, promptivd.AckResponse{Status: ack.Status, Error: ack.Error})
	case promptivd.FramePong:
		// liveness already noted above; nothing further to do.
	case promptivd.FrameRegister:
		// A second register on an already-registered session is a
		// protocol violation; close without touching the registry twice.
		s.logger.Warn("unexpected register on active session", "session", s.id)
		s.close("unexpected register frame")
	default:
		s.logger.Warn("ignoring unknown frame type", "session", s.id, "type", typ)
	}
}

// enqueue pushes a relay-to-sink frame onto the outbound queue. If the
// queue is full the writer has fallen behind; per the bounded-queue
// overflow policy the session is closed rather than letting memory grow
// without bound.
func (s *Session) enqueue(frame []byte) error {
	if s.outbound.TryPush(frame) {
		metrics.OutboundQueueDepth.Set(float64(s.outbound.Len()))
		return nil
	}

	if s.outbound.Closed() {
		return fmt.Errorf("session closed")
	}

	s.logger.Warn("outbound queue overflow, closing session", "session", s.id)
	s.close("Outbound queue overflow")
	return fmt.Errorf("outbound queue overflow")
}

// RegisterWaiter inserts a waiter for jobID before the caller enqueues the
// corresponding insert_text frame, per the dispatch ordering contract. It
// fails if the session is not registered or is already closing.
func (s *Session) RegisterWaiter(jobID string) (chan promptivd.AckResponse, error) {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	if st != stateRegistered {
		return nil, promptivd.NewAppError(promptivd.ErrNoSink, "sink not registered")
	}

	ch := make(chan promptivd.AckResponse, 1)
	s.waitersMu.Lock()
	s.waiters[jobID] = ch
	s.waitersMu.Unlock()
	return ch, nil
}

// RemoveWaiter removes and returns the waiter for jobID, used for
// best-effort cleanup on dispatch timeout.
func (s *Session) RemoveWaiter(jobID string) (chan promptivd.AckResponse, bool) {
	s.waitersMu.Lock()
	defer s.waitersMu.Unlock()
	ch, ok := s.waiters[jobID]
	if ok {
		delete(s.waiters, jobID)
	}
	return ch, ok
}

// resolveWaiter fulfills and removes the waiter for jobID, if any. Acks for
// unknown ids (already timed out, or never registered) are dropped
// silently.
func (s *Session) resolveWaiter(jobID string, resp promptivd.AckResponse) {
	s.waitersMu.Lock()
	ch, ok := s.waiters[jobID]
	if ok {
		delete(s.waiters, jobID)
	}
	s.waitersMu.Unlock()

	if !ok {
		return
	}
	ch <- resp
	close(ch)
}

// Enqueue exposes enqueue to the dispatch engine.
func (s *Session) Enqueue(frame []byte) error {
	return s.enqueue(frame)
}

// drainWaiters resolves every outstanding waiter with the given terminal
// outcome, used on disconnect and supersession.
func (s *Session) drainWaiters(status promptivd.AckStatus, errMsg string) {
	s.waitersMu.Lock()
	waiters := s.waiters
	s.waiters = make(map[string]chan promptivd.AckResponse)
	s.waitersMu.Unlock()

	for _, ch := range waiters {
		ch <- promptivd.AckResponse{Status: status, Error: errMsg}
		close(ch)
	}
}

// noteLiveness is invoked on every well-formed inbound frame. Any such frame
// (a pong, an ack, or any other) delivered while a ping is outstanding and
// within its pong window clears the outstanding ping and the missed-ping
// count; frames arriving when no ping is outstanding, or after the window,
// change nothing.
func (s *Session) noteLiveness() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.awaitingPong && time.Since(s.lastPingAt) < s.cfg.PongTimeout {
		s.awaitingPong = false
		s.missedPings = 0
	}
}

// tickLiveness runs one iteration of the ping/pong protocol described in
// the liveness section: at most one outstanding ping per session, missed
// pings accumulate until the session is closed.
func (s *Session) tickLiveness() {
	s.mu.Lock()
	if s.state != stateRegistered {
		s.mu.Unlock()
		return
	}

	if !s.awaitingPong {
		s.awaitingPong = true
		s.lastPingAt = time.Now()
		s.mu.Unlock()

		ping, err := promptivd.EncodePingFrame()
		if err != nil {
			return
		}
		_ = s.enqueue(ping)
		return
	}

	if time.Since(s.lastPingAt) >= s.cfg.PongTimeout {
		s.missedPings++
		if s.missedPings >= s.cfg.MaxMissedPings {
			s.mu.Unlock()
			s.logger.Warn("sink missed too many pings, closing", "session", s.id, "missed", s.missedPings)
			s.close("Sink disconnected")
			return
		}
		s.awaitingPong = false
		s.mu.Unlock()
		return
	}

	s.mu.Unlock()
}

// close transitions the session to CLOSING exactly once: it removes itself
// from the registry (if still current), drains all waiters with retry, and
// closes the outbound queue so the writer loop exits.
func (s *Session) close(reason string) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = stateClosing
		s.mu.Unlock()

		s.registry.Take(s)
		s.drainWaiters(promptivd.AckRetry, reason)
		s.outbound.Close()
		close(s.closed)
		_ = s.conn.Close()
	})
}

// closeWithoutPublishing handles the INIT -> CLOSING transition for
// sessions that never successfully registered; the registry was never
// touched so there is nothing to take, but waiters can never have been
// registered either (no job is ever dispatched to an unregistered
// session), so this degenerates to connection cleanup.
func (s *Session) closeWithoutPublishing() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = stateClosing
		s.mu.Unlock()
		s.outbound.Close()
		close(s.closed)
		_ = s.conn.Close()
	})
}

// Close allows external callers (e.g. graceful shutdown) to terminate the
// session.
func (s *Session) Close() {
	s.close("server shutting down")
}

// IsRegistered reports whether the session has completed registration.
func (s *Session) IsRegistered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateRegistered
}
