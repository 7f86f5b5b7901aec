package audit

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// PrepareMetadata renders a job's caller-supplied metadata for audit
// storage: marshaled to JSON, with every path in redactPaths stripped
// (sjson.Delete, same path syntax as gjson.Get), and zstd-compressed when
// compress is set. Metadata is opaque and caller-controlled, so redaction
// lets an operator keep known-sensitive fields (e.g. "api_key", a path
// relative to the metadata value itself)
// out of the audit trail without rejecting the job itself.
//
// Returns nil, nil for a nil value, so Record.Metadata stays nil rather
// than holding a redundant "null" blob.
func PrepareMetadata(v interface{}, redactPaths []string, compress bool) ([]byte, error) {
	if v == nil {
		return nil, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	for _, path := range redactPaths {
		data, err = sjson.DeleteBytes(data, path)
		if err != nil {
			return nil, err
		}
	}

	if !compress {
		return data, nil
	}
	return CompressMetadata(data)
}

// MetadataField extracts a single field from uncompressed, already-redacted
// metadata JSON for structured logging, e.g. a preview of the job without
// serializing the whole blob into a log line. Returns "" if path does not
// resolve.
func MetadataField(data []byte, path string) string {
	if len(data) == 0 {
		return ""
	}
	res := gjson.GetBytes(data, path)
	if !res.Exists() {
		return ""
	}
	return res.String()
}
