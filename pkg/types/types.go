// Package types holds the data model shared by every layer of the storage
// engine: block and version identifiers, the dereferenced block handle the
// facade passes around, and the sidecar metadata record persisted next to
// every stored object.
package types

import "fmt"

// BlockUid identifies a fixed-size data block. The pair is jointly unique;
// neither half is meaningful on its own.
type BlockUid struct {
	Left  uint64
	Right uint64
}

// String renders the canonical object-key form of the UID, "%016x-%016x".
func (u BlockUid) String() string {
	return fmt.Sprintf("%016x-%016x", u.Left, u.Right)
}

// VersionUid is an opaque, readable token identifying a version manifest.
// The zero value is not a valid identifier.
type VersionUid uint64

// Readable renders the form persisted in object keys and shown to users,
// e.g. "V0000000001".
func (u VersionUid) Readable() string {
	return fmt.Sprintf("V%010d", uint64(u))
}

// ParseVersionUid parses the readable form back into a VersionUid.
func ParseVersionUid(readable string) (VersionUid, error) {
	var n uint64
	if len(readable) != 11 || readable[0] != 'V' {
		return 0, fmt.Errorf("types: invalid version uid %q", readable)
	}
	if _, err := fmt.Sscanf(readable[1:], "%010d", &n); err != nil {
		return 0, fmt.Errorf("types: invalid version uid %q: %w", readable, err)
	}
	return VersionUid(n), nil
}

// Block is a dereferenced block handle: the storage engine treats it as an
// opaque record it never mutates, returning the same handle it was given.
type Block struct {
	Uid      BlockUid
	Id       int
	Size     int
	Checksum string // hex-encoded; empty means "not set"
}

// TransformRecord captures one stage of the encapsulation chain: the
// transform's registered name, the module it reports (checked against the
// currently configured module on decapsulation), and whatever
// transform-specific materials (nonce, dictionary id, ...) it needs to
// reverse itself.
type TransformRecord struct {
	Name      string          `json:"name"`
	Module    string          `json:"module"`
	Materials map[string]string `json:"materials,omitempty"`
}

// Metadata is the decoded form of a sidecar ".meta" object.
type Metadata struct {
	Size         int               `json:"size"`
	ObjectSize   int               `json:"object_size"`
	Checksum     string            `json:"checksum,omitempty"`
	Transforms   []TransformRecord `json:"transforms,omitempty"`
	HMAC         string            `json:"hmac,omitempty"`
}
