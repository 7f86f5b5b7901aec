package promptivd

import (
	"encoding/json"
	"testing"
)

func TestDecodeSinkFrame_Register(t *testing.T) {
	data := []byte(`{"type":"register","schema_version":"1.0","version":"0.1.0","capabilities":["append"],"providers":[]}`)
	typ, payload, err := DecodeSinkFrame(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typ != FrameRegister {
		t.Fatalf("expected type %q, got %q", FrameRegister, typ)
	}
	reg, ok := payload.(*RegisterFrame)
	if !ok {
		t.Fatalf("expected *RegisterFrame, got %T", payload)
	}
	if reg.Version != "0.1.0" || len(reg.Capabilities) != 1 {
		t.Fatalf("unexpected register contents: %+v", reg)
	}
}

func TestDecodeSinkFrame_RegisterWithoutProviders(t *testing.T) {
	// A sink is allowed to omit the providers array entirely; it must not
	// be treated as a decode error.
	data := []byte(`{"type":"register","schema_version":"1.0","version":"0.1.0","capabilities":["append"]}`)
	_, payload, err := DecodeSinkFrame(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reg := payload.(*RegisterFrame)
	if reg.Providers != nil && len(reg.Providers) != 0 {
		t.Fatalf("expected empty providers, got %v", reg.Providers)
	}
}

func TestDecodeSinkFrame_Ack(t *testing.T) {
	data := []byte(`{"type":"ack","schema_version":"1.0","id":"abc","status":"ok"}`)
	typ, payload, err := DecodeSinkFrame(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typ != FrameAck {
		t.Fatalf("expected type %q, got %q", FrameAck, typ)
	}
	ack := payload.(*AckFrame)
	if ack.ID != "abc" || ack.Status != AckOK {
		t.Fatalf("unexpected ack contents: %+v", ack)
	}
}

func TestDecodeSinkFrame_MissingSchemaVersion(t *testing.T) {
	data := []byte(`{"type":"pong"}`)
	if _, _, err := DecodeSinkFrame(data); err == nil {
		t.Fatal("expected error for missing schema_version")
	}
}

func TestDecodeSinkFrame_UnknownType(t *testing.T) {
	data := []byte(`{"type":"bogus","schema_version":"1.0"}`)
	if _, _, err := DecodeSinkFrame(data); err == nil {
		t.Fatal("expected error for unknown frame type")
	}
}

func TestEncodePolicyFrame(t *testing.T) {
	b, err := EncodePolicyFrame(PolicyFrame{SupersedeOnRegister: true, MaxJobBytes: 1024})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	version, err := SchemaVersionOf(b)
	if err != nil || version != SchemaVersion {
		t.Fatalf("expected schema_version %q, got %q (err=%v)", SchemaVersion, version, err)
	}
}

func TestEncodeInsertTextFrame(t *testing.T) {
	b, err := EncodeInsertTextFrame(InsertTextFrame{
		ID: "job-1",
		Payload: InsertTextPayload{
			Text:   "hello",
			Source: SourceInfo{Client: "cli"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded struct {
		Type          string `json:"type"`
		SchemaVersion string `json:"schema_version"`
		ID            string `json:"id"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Type != FrameInsertText || decoded.ID != "job-1" {
		t.Fatalf("unexpected encoded frame: %+v", decoded)
	}
}
