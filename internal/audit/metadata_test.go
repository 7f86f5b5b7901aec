package audit

import (
	"encoding/json"
	"testing"
)

func TestPrepareMetadata_Nil(t *testing.T) {
	data, err := PrepareMetadata(nil, nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data != nil {
		t.Fatalf("expected nil metadata, got %q", data)
	}
}

func TestPrepareMetadata_Redacts(t *testing.T) {
	meta := map[string]interface{}{
		"kind":    "paste",
		"api_key": "super-secret",
	}
	data, err := PrepareMetadata(meta, []string{"api_key"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("failed to unmarshal redacted metadata: %v", err)
	}
	if _, present := out["api_key"]; present {
		t.Fatal("expected api_key to be redacted")
	}
	if out["kind"] != "paste" {
		t.Fatalf("expected unredacted fields to survive, got %+v", out)
	}
}

func TestPrepareMetadata_Compresses(t *testing.T) {
	meta := map[string]interface{}{"kind": "paste"}
	data, err := PrepareMetadata(meta, nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decompressed, err := DecompressMetadata(data)
	if err != nil {
		t.Fatalf("failed to decompress: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(decompressed, &out); err != nil {
		t.Fatalf("failed to unmarshal decompressed metadata: %v", err)
	}
	if out["kind"] != "paste" {
		t.Fatalf("unexpected roundtrip result: %+v", out)
	}
}

func TestMetadataField(t *testing.T) {
	data := []byte(`{"kind":"paste","nested":{"x":1}}`)
	if got := MetadataField(data, "kind"); got != "paste" {
		t.Fatalf("expected 'paste', got %q", got)
	}
	if got := MetadataField(data, "missing"); got != "" {
		t.Fatalf("expected empty string for missing path, got %q", got)
	}
	if got := MetadataField(nil, "kind"); got != "" {
		t.Fatalf("expected empty string for nil data, got %q", got)
	}
}
