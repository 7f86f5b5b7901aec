package audit

import "github.com/klauspost/compress/zstd"

// CompressMetadata optionally compresses an opaque metadata blob before it
// is stored alongside an audit record, for backends where metadata payloads
// can be large (job metadata is caller-controlled and unbounded in size).
// Disabled by default; enabled via audit.compress.
func CompressMetadata(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(data, nil), nil
}

// DecompressMetadata reverses CompressMetadata.
func DecompressMetadata(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
