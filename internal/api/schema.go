package api

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// insertTextSchema is the JSON-Schema pre-check (A7) that runs ahead of the
// field-by-field InsertTextRequest.Validate() rules: it rejects structurally
// wrong bodies (wrong types, unexpected top-level shape) with a single
// aggregated error message instead of a generic unmarshal failure.
const insertTextSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["schema_version", "source", "text"],
  "properties": {
    "schema_version": {"type": "string"},
    "source": {
      "type": "object",
      "required": ["client"],
      "properties": {
        "client": {"type": "string"},
        "label": {"type": "string"},
        "path": {"type": "string"}
      }
    },
    "text": {"type": "string"},
    "placement": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {"type": "string", "enum": ["top", "bottom", "cursor"]}
      }
    },
    "target": {
      "type": "object",
      "properties": {
        "provider": {"type": "string"},
        "session_directive": {
          "type": "string",
          "enum": ["reuse_or_create", "reuse_only", "start_fresh"]
        }
      }
    }
  }
}`

// SchemaValidator holds the compiled JSON schema used to pre-validate
// incoming insert request bodies.
type SchemaValidator struct {
	schema *gojsonschema.Schema
}

// NewSchemaValidator compiles the insert-text request schema once at
// startup.
func NewSchemaValidator() (*SchemaValidator, error) {
	loader := gojsonschema.NewStringLoader(insertTextSchema)
	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, fmt.Errorf("failed to compile insert-text schema: %w", err)
	}
	return &SchemaValidator{schema: schema}, nil
}

// Validate checks raw JSON body against the schema, returning a single
// aggregated error describing every violation found.
func (v *SchemaValidator) Validate(body []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msg := "request body does not match schema: "
	for i, e := range result.Errors() {
		if i > 0 {
			msg += "; "
		}
		msg += e.String()
	}
	return fmt.Errorf("%s", msg)
}
