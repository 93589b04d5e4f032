// Package metadata builds and parses the JSON sidecar object written next
// to every stored payload, optionally protecting it with an HMAC.
package metadata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/benji-go/corestore/pkg/corestore"
	"github.com/benji-go/corestore/pkg/types"
)

// Codec builds and decodes metadata envelopes, optionally signing and
// verifying them with an HMAC key. The zero value is a valid, keyless
// codec: Build attaches no hmac field, Decode skips verification.
type Codec struct {
	hmacKey []byte
}

// NewCodec returns a codec that signs and verifies with key. A nil or
// empty key is equivalent to the zero value Codec (no HMAC).
func NewCodec(key []byte) *Codec {
	return &Codec{hmacKey: key}
}

// canonical marshals meta with its HMAC field cleared, which — because
// encoding/json always emits struct fields in declaration order — is a
// deterministic encoding independent of how the field was last populated.
func canonical(meta types.Metadata) ([]byte, error) {
	meta.HMAC = ""
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("metadata: encode: %w", err)
	}
	return b, nil
}

func (c *Codec) sign(canonicalJSON []byte) string {
	mac := hmac.New(sha256.New, c.hmacKey)
	mac.Write(canonicalJSON)
	return hex.EncodeToString(mac.Sum(nil))
}

// Build serializes meta as compact JSON. When the codec has an HMAC key
// configured, the HMAC is computed over the canonical encoding of every
// field except hmac itself, then inserted before the final encode.
func (c *Codec) Build(meta types.Metadata) ([]byte, error) {
	if len(c.hmacKey) == 0 {
		return canonical(meta)
	}

	canonicalJSON, err := canonical(meta)
	if err != nil {
		return nil, err
	}
	meta.HMAC = c.sign(canonicalJSON)

	b, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("metadata: encode: %w", err)
	}
	return b, nil
}

// Decode parses a metadata envelope. If the codec has an HMAC key
// configured, the record's hmac field is verified in constant time before
// the record is returned; a missing hmac field, or a record that no longer
// parses as JSON, is itself an integrity failure when a key is configured.
// With no key configured, verification is skipped and any hmac field
// present is returned unchecked.
func (c *Codec) Decode(data []byte) (types.Metadata, error) {
	var meta types.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		if len(c.hmacKey) != 0 {
			return types.Metadata{}, fmt.Errorf("metadata: %w: decode: %v", corestore.ErrIntegrity, err)
		}
		return types.Metadata{}, fmt.Errorf("metadata: decode: %w", err)
	}

	if len(c.hmacKey) == 0 {
		return meta, nil
	}

	if meta.HMAC == "" {
		return types.Metadata{}, fmt.Errorf("metadata: %w: hmac required but absent", corestore.ErrIntegrity)
	}

	want, err := hex.DecodeString(meta.HMAC)
	if err != nil {
		return types.Metadata{}, fmt.Errorf("metadata: %w: malformed hmac", corestore.ErrIntegrity)
	}

	canonicalJSON, err := canonical(meta)
	if err != nil {
		return types.Metadata{}, err
	}
	got, err := hex.DecodeString(c.sign(canonicalJSON))
	if err != nil {
		return types.Metadata{}, fmt.Errorf("metadata: %w: %v", corestore.ErrInternal, err)
	}

	if !hmac.Equal(want, got) {
		return types.Metadata{}, fmt.Errorf("metadata: %w", corestore.ErrIntegrity)
	}

	return meta, nil
}
