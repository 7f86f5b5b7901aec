package promptivd

import (
	"encoding/json"
	"testing"
)

func TestInsertTextRequest_PlacementIsTaggedObject(t *testing.T) {
	r := validRequest()
	r.Placement = NewPlacement(PlacementBottom)

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded struct {
		Placement struct {
			Type string `json:"type"`
		} `json:"placement"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Placement.Type != "bottom" {
		t.Fatalf("expected placement.type %q, got %q", "bottom", decoded.Placement.Type)
	}
}

func validRequest() InsertTextRequest {
	return InsertTextRequest{
		SchemaVersion: SchemaVersion,
		Source:        SourceInfo{Client: "cli"},
		Text:          "hello",
	}
}

func TestInsertTextRequest_Validate_OK(t *testing.T) {
	r := validRequest()
	if err := r.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInsertTextRequest_Validate_WrongSchemaVersion(t *testing.T) {
	r := validRequest()
	r.SchemaVersion = "2.0"
	if err := r.Validate(); err == nil {
		t.Fatal("expected error for wrong schema version")
	}
}

func TestInsertTextRequest_Validate_EmptyClient(t *testing.T) {
	r := validRequest()
	r.Source.Client = "   "
	if err := r.Validate(); err == nil {
		t.Fatal("expected error for empty client")
	}
}

func TestInsertTextRequest_Validate_WhitespaceText(t *testing.T) {
	r := validRequest()
	r.Text = "   \t\n"
	if err := r.Validate(); err == nil {
		t.Fatal("expected error for whitespace-only text")
	}
}

func TestInsertTextRequest_Validate_EmptyTargetProvider(t *testing.T) {
	r := validRequest()
	r.Target = &TargetSpec{Provider: "   "}
	if err := r.Validate(); err == nil {
		t.Fatal("expected error for whitespace-only target.provider")
	}
}

func TestInsertTextRequest_Validate_OrderSchemaBeforeClient(t *testing.T) {
	r := validRequest()
	r.SchemaVersion = "bogus"
	r.Source.Client = ""
	err := r.Validate()
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Field != "schema_version" {
		t.Fatalf("expected schema_version to be checked first, got field %q", ve.Field)
	}
}
