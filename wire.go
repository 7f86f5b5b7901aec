package promptivd

import (
	"encoding/json"
	"fmt"
)

// Frame types exchanged over the sink WebSocket channel.
const (
	FrameRegister   = "register"
	FrameAck        = "ack"
	FramePong       = "pong"
	FramePolicy     = "policy"
	FramePing       = "ping"
	FrameInsertText = "insert_text"
)

// envelope is the common shape every wire frame shares: a type tag plus a
// schema version, with the rest of the payload deferred for per-type
// decoding.
type envelope struct {
	Type          string          `json:"type"`
	SchemaVersion string          `json:"schema_version"`
	Raw           json.RawMessage `json:"-"`
}

// RegisterFrame is sent by the sink as the first frame of a session.
type RegisterFrame struct {
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
	Providers    []string `json:"providers"`
}

// AckFrame is sent by the sink in response to an insert_text frame.
type AckFrame struct {
	ID     string    `json:"id"`
	Status AckStatus `json:"status"`
	Error  string    `json:"error,omitempty"`
}

// PongFrame is sent by the sink in response to a ping.
type PongFrame struct{}

// PolicyFrame is sent by the relay once, immediately after a successful
// registration.
type PolicyFrame struct {
	SupersedeOnRegister bool  `json:"supersede_on_register"`
	MaxJobBytes         int64 `json:"max_job_bytes"`
}

// PingFrame is sent by the relay on each liveness tick.
type PingFrame struct{}

// InsertTextPayload carries the parts of a job the sink actually needs to
// act on; it excludes the server-internal job id, which travels alongside
// it in InsertTextFrame.
type InsertTextPayload struct {
	Text      string      `json:"text"`
	Placement *Placement  `json:"placement,omitempty"`
	Source    SourceInfo  `json:"source"`
	Target    *TargetSpec `json:"target,omitempty"`
	Metadata  interface{} `json:"metadata,omitempty"`
}

// InsertTextFrame is sent by the relay to dispatch a job to the sink.
type InsertTextFrame struct {
	ID      string            `json:"id"`
	Payload InsertTextPayload `json:"payload"`
}

// DecodeSinkFrame parses one inbound (sink → relay) frame. It returns the
// frame type tag, the decoded payload (one of *RegisterFrame, *AckFrame,
// *PongFrame), and an error.
//
// Per the forward-compatibility policy: a schema_version mismatch on
// anything other than a register frame is not an error — the caller is
// expected to log and ignore rather than treat it as fatal. A missing
// schema_version, or an unknown type tag, is always an error.
func DecodeSinkFrame(data []byte) (string, interface{}, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("malformed frame: %w", err)
	}
	if env.SchemaVersion == "" {
		return "", nil, fmt.Errorf("frame missing schema_version")
	}

	switch env.Type {
	case FrameRegister:
		var f RegisterFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return env.Type, nil, fmt.Errorf("malformed register frame: %w", err)
		}
		return env.Type, &f, nil
	case FrameAck:
		var f AckFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return env.Type, nil, fmt.Errorf("malformed ack frame: %w", err)
		}
		return env.Type, &f, nil
	case FramePong:
		return env.Type, &PongFrame{}, nil
	default:
		return env.Type, nil, fmt.Errorf("unknown frame type %q", env.Type)
	}
}

// SchemaVersionOf extracts just the schema_version field, used by callers
// that need to apply the mismatch-tolerance policy themselves before full
// decoding.
func SchemaVersionOf(data []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", err
	}
	return env.SchemaVersion, nil
}

func encodeFrame(frameType string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"], _ = json.Marshal(frameType)
	fields["schema_version"], _ = json.Marshal(SchemaVersion)
	return json.Marshal(fields)
}

// EncodePolicyFrame, EncodePingFrame and EncodeInsertTextFrame serialize the
// three relay → sink frame kinds with their type and schema_version tags
// attached.
func EncodePolicyFrame(f PolicyFrame) ([]byte, error) {
	return encodeFrame(FramePolicy, f)
}

func EncodePingFrame() ([]byte, error) {
	return encodeFrame(FramePing, PingFrame{})
}

func EncodeInsertTextFrame(f InsertTextFrame) ([]byte, error) {
	return encodeFrame(FrameInsertText, f)
}

// EncodeRegisterFrame, EncodeAckFrame and EncodePongFrame serialize the
// three sink → relay frame kinds, used by sink client implementations such
// as cmd/promptivs.
func EncodeRegisterFrame(f RegisterFrame) ([]byte, error) {
	return encodeFrame(FrameRegister, f)
}

func EncodeAckFrame(f AckFrame) ([]byte, error) {
	return encodeFrame(FrameAck, f)
}

func EncodePongFrame() ([]byte, error) {
	return encodeFrame(FramePong, PongFrame{})
}

// DecodeRelayFrame parses one outbound (relay → sink) frame. It returns the
// frame type tag, the decoded payload (one of *PolicyFrame, *PingFrame,
// *InsertTextFrame), and an error. Used by sink client implementations.
func DecodeRelayFrame(data []byte) (string, interface{}, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("malformed frame: %w", err)
	}
	if env.SchemaVersion == "" {
		return "", nil, fmt.Errorf("frame missing schema_version")
	}

	switch env.Type {
	case FramePolicy:
		var f PolicyFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return env.Type, nil, fmt.Errorf("malformed policy frame: %w", err)
		}
		return env.Type, &f, nil
	case FramePing:
		return env.Type, &PingFrame{}, nil
	case FrameInsertText:
		var f InsertTextFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return env.Type, nil, fmt.Errorf("malformed insert_text frame: %w", err)
		}
		return env.Type, &f, nil
	default:
		return env.Type, nil, fmt.Errorf("unknown frame type %q", env.Type)
	}
}
