package promptivd

import "time"

// SinkConnection records what a sink advertised at registration time. It is
// created from a valid register frame and lives for as long as the sink's
// session is the active one.
type SinkConnection struct {
	ID           string    `json:"id"`
	RegisteredAt time.Time `json:"registered_at"`
	Version      string    `json:"version"`
	Capabilities []string  `json:"capabilities"`
	Providers    []string  `json:"providers"`
}

// NewSinkConnection builds a registration record from a register frame's
// fields. A nil or empty providers/capabilities slice is normalized to an
// empty, non-nil slice so callers never have to nil-check it.
func NewSinkConnection(id, version string, capabilities, providers []string) SinkConnection {
	if capabilities == nil {
		capabilities = []string{}
	}
	if providers == nil {
		providers = []string{}
	}
	return SinkConnection{
		ID:           id,
		RegisteredAt: time.Now().UTC(),
		Version:      version,
		Capabilities: capabilities,
		Providers:    providers,
	}
}
