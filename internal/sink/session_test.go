package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/midsbie/promptivd"
)

type testLogger struct{}

func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func testConfig() Config {
	return Config{
		SupersedeOnRegister:   true,
		MaxJobBytes:           128 * 1024,
		PingInterval:          50 * time.Millisecond,
		PongTimeout:           30 * time.Millisecond,
		MaxMissedPings:        2,
		OutboundQueueCapacity: 16,
	}
}

// newTestServer upgrades every request to a WebSocket and drives it as a
// Session against registry, returning the server and a dialer func.
func newTestServer(t *testing.T, registry *Registry, cfg Config) (*httptest.Server, func() *websocket.Conn) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		session := NewSession(conn, registry, cfg, testLogger{})
		go session.Run(context.Background())
	}))

	dial := func() *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial failed: %v", err)
		}
		return conn
	}
	return srv, dial
}

func sendRegister(t *testing.T, conn *websocket.Conn, providers []string) {
	t.Helper()
	frame := map[string]interface{}{
		"type":           promptivd.FrameRegister,
		"schema_version": promptivd.SchemaVersion,
		"version":        "0.1.0",
		"capabilities":   []string{"append"},
		"providers":      providers,
	}
	b, _ := json.Marshal(frame)
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("failed to send register: %v", err)
	}
}

func readPolicy(t *testing.T, conn *websocket.Conn) promptivd.PolicyFrame {
	t.Helper()
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read policy frame: %v", err)
	}
	var policy promptivd.PolicyFrame
	if err := json.Unmarshal(data, &policy); err != nil {
		t.Fatalf("failed to decode policy frame: %v", err)
	}
	return policy
}

func TestSession_HappyPath(t *testing.T) {
	registry := NewRegistry()
	srv, dial := newTestServer(t, registry, testConfig())
	defer srv.Close()

	conn := dial()
	defer conn.Close()

	sendRegister(t, conn, nil)
	readPolicy(t, conn)

	deadline := time.After(time.Second)
	for registry.Current() == nil || !registry.Current().IsRegistered() {
		select {
		case <-deadline:
			t.Fatal("session never became registered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	engine := NewEngine(registry, time.Second)
	job := promptivd.Job{ID: NewJobID(), Request: promptivd.InsertTextRequest{
		SchemaVersion: promptivd.SchemaVersion,
		Source:        promptivd.SourceInfo{Client: "cli"},
		Text:          "hello",
	}}

	done := make(chan promptivd.AckResponse, 1)
	errCh := make(chan error, 1)
	go func() {
		resp, err := engine.Dispatch(context.Background(), job)
		if err != nil {
			errCh <- err
			return
		}
		done <- resp
	}()

	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read insert_text frame: %v", err)
	}
	var frame promptivd.InsertTextFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("failed to decode insert_text frame: %v", err)
	}
	if frame.ID != job.ID || frame.Payload.Text != "hello" {
		t.Fatalf("unexpected insert_text frame: %+v", frame)
	}

	ack := map[string]interface{}{
		"type":           promptivd.FrameAck,
		"schema_version": promptivd.SchemaVersion,
		"id":             frame.ID,
		"status":         "ok",
	}
	b, _ := json.Marshal(ack)
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("failed to send ack: %v", err)
	}

	select {
	case resp := <-done:
		if resp.Status != promptivd.AckOK {
			t.Fatalf("expected ok status, got %+v", resp)
		}
	case err := <-errCh:
		t.Fatalf("unexpected dispatch error: %v", err)
	case <-time.After(time.Second):
		t.Fatal("dispatch did not resolve in time")
	}
}

func TestDispatch_NoSink(t *testing.T) {
	registry := NewRegistry()
	engine := NewEngine(registry, 50*time.Millisecond)

	_, err := engine.Dispatch(context.Background(), promptivd.Job{ID: NewJobID()})
	appErr, ok := err.(*promptivd.AppError)
	if !ok || appErr.Kind != promptivd.ErrNoSink {
		t.Fatalf("expected no_sink error, got %v", err)
	}
}

func TestDispatch_Timeout(t *testing.T) {
	registry := NewRegistry()
	srv, dial := newTestServer(t, registry, testConfig())
	defer srv.Close()

	conn := dial()
	defer conn.Close()
	sendRegister(t, conn, nil)
	readPolicy(t, conn)

	deadline := time.After(time.Second)
	for registry.Current() == nil || !registry.Current().IsRegistered() {
		select {
		case <-deadline:
			t.Fatal("session never became registered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	engine := NewEngine(registry, 50*time.Millisecond)
	_, err := engine.Dispatch(context.Background(), promptivd.Job{ID: NewJobID(), Request: promptivd.InsertTextRequest{
		Source: promptivd.SourceInfo{Client: "cli"},
		Text:   "hi",
	}})
	appErr, ok := err.(*promptivd.AppError)
	if !ok || appErr.Kind != promptivd.ErrDispatchTimeout {
		t.Fatalf("expected dispatch_timeout error, got %v", err)
	}
}
