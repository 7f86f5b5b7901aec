package promptivd

import "strings"

// PlacementType enumerates where a sink should insert text relative to the
// target's current cursor or content.
type PlacementType string

const (
	PlacementTop    PlacementType = "top"
	PlacementBottom PlacementType = "bottom"
	PlacementCursor PlacementType = "cursor"
)

// Placement is the wire representation of a placement directive: a tagged
// object, e.g. {"type":"bottom"}, not a bare string.
type Placement struct {
	Type PlacementType `json:"type"`
}

// NewPlacement builds a Placement from its type tag.
func NewPlacement(t PlacementType) *Placement {
	return &Placement{Type: t}
}

// SessionDirective tells the sink how to pick or create the target session
// before inserting text into it.
type SessionDirective string

const (
	SessionReuseOrCreate SessionDirective = "reuse_or_create"
	SessionReuseOnly     SessionDirective = "reuse_only"
	SessionStartFresh    SessionDirective = "start_fresh"
)

// SourceInfo identifies the originator of a job for logging and audit
// purposes. Client is the only required field.
type SourceInfo struct {
	Client string `json:"client"`
	Label  string `json:"label,omitempty"`
	Path   string `json:"path,omitempty"`
}

// TargetSpec optionally pins a job to a specific provider and/or session
// lifecycle directive. Both fields are optional.
type TargetSpec struct {
	Provider         string           `json:"provider,omitempty"`
	SessionDirective SessionDirective `json:"session_directive,omitempty"`
}

// InsertTextRequest is the body of POST /v1/insert.
type InsertTextRequest struct {
	SchemaVersion string      `json:"schema_version"`
	Source        SourceInfo  `json:"source"`
	Text          string      `json:"text"`
	Placement     *Placement  `json:"placement,omitempty"`
	Target        *TargetSpec `json:"target,omitempty"`
	Metadata      interface{} `json:"metadata,omitempty"`
}

// Validate runs the ordered field checks from the ingress contract. Checks
// run in this exact order because the first violated rule determines the
// error the submitter sees.
func (r *InsertTextRequest) Validate() error {
	if r.SchemaVersion != SchemaVersion {
		return &ValidationError{Field: "schema_version", Message: "unsupported schema version"}
	}
	if strings.TrimSpace(r.Source.Client) == "" {
		return &ValidationError{Field: "source.client", Message: "must not be empty"}
	}
	if strings.TrimSpace(r.Text) == "" {
		return &ValidationError{Field: "text", Message: "must not be empty"}
	}
	if r.Target != nil && r.Target.Provider != "" && strings.TrimSpace(r.Target.Provider) == "" {
		return &ValidationError{Field: "target.provider", Message: "must not be empty"}
	}
	return nil
}

// Job is the immutable, server-assigned representation of a validated
// insertion request. Its lifetime spans one HTTP request.
type Job struct {
	ID      string
	Request InsertTextRequest
}

// ValidationError describes a single failed field check on an
// InsertTextRequest.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
