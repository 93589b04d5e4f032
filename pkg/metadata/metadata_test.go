package metadata

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/benji-go/corestore/pkg/corestore"
	"github.com/benji-go/corestore/pkg/types"
)

func sampleMeta() types.Metadata {
	return types.Metadata{
		Size:       1024,
		ObjectSize: 900,
		Checksum:   "abcd1234",
		Transforms: []types.TransformRecord{
			{Name: "zlib", Module: "klauspost/compress/zlib"},
			{Name: "aes", Module: "crypto/aes-gcm", Materials: map[string]string{"nonce": "deadbeef"}},
		},
	}
}

func TestCodec_NoKey_RoundTrip(t *testing.T) {
	codec := NewCodec(nil)
	data, err := codec.Build(sampleMeta())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if _, present := raw["hmac"]; present {
		t.Error("hmac field should be absent (omitempty) with no key configured")
	}

	got, err := codec.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Size != 1024 || got.ObjectSize != 900 || got.Checksum != "abcd1234" {
		t.Errorf("decoded metadata mismatch: %+v", got)
	}
	if len(got.Transforms) != 2 {
		t.Fatalf("got %d transform records, want 2", len(got.Transforms))
	}
}

func TestCodec_WithKey_RoundTrip(t *testing.T) {
	codec := NewCodec([]byte("a-signing-key"))
	data, err := codec.Build(sampleMeta())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if raw["hmac"] == "" || raw["hmac"] == nil {
		t.Fatal("expected non-empty hmac field")
	}

	got, err := codec.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Size != 1024 {
		t.Errorf("got.Size = %d, want 1024", got.Size)
	}
}

func TestCodec_Decode_TamperedPayload(t *testing.T) {
	codec := NewCodec([]byte("a-signing-key"))
	data, err := codec.Build(sampleMeta())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var meta types.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	meta.Size = 99999 // tamper with a signed field
	tampered, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	_, err = codec.Decode(tampered)
	if !errors.Is(err, corestore.ErrIntegrity) {
		t.Fatalf("Decode() error = %v, want ErrIntegrity", err)
	}
}

func TestCodec_Decode_WrongKey(t *testing.T) {
	writer := NewCodec([]byte("key-one"))
	reader := NewCodec([]byte("key-two"))

	data, err := writer.Build(sampleMeta())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if _, err := reader.Decode(data); !errors.Is(err, corestore.ErrIntegrity) {
		t.Fatalf("Decode() error = %v, want ErrIntegrity", err)
	}
}

func TestCodec_Decode_MissingHMACWhenKeyConfigured(t *testing.T) {
	unsigned := NewCodec(nil)
	data, err := unsigned.Build(sampleMeta())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	signed := NewCodec([]byte("a-key"))
	if _, err := signed.Decode(data); !errors.Is(err, corestore.ErrIntegrity) {
		t.Fatalf("Decode() error = %v, want ErrIntegrity", err)
	}
}

func TestCanonicalEncoding_FieldOrderStable(t *testing.T) {
	meta := sampleMeta()
	a, err := canonical(meta)
	if err != nil {
		t.Fatalf("canonical() error = %v", err)
	}
	b, err := canonical(meta)
	if err != nil {
		t.Fatalf("canonical() error = %v", err)
	}
	if string(a) != string(b) {
		t.Error("canonical() should be deterministic for identical input")
	}
}
