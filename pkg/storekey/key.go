// Package storekey derives the backend object keys blocks and versions are
// stored under, and parses them back. Keys are never exposed to callers of
// the storage facade; they exist only at the backend boundary.
package storekey

import (
	"crypto/md5" //nolint:gosec // used for key fan-out, not security
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/benji-go/corestore/pkg/types"
)

const (
	// BlocksPrefix namespaces block payload and sidecar objects.
	BlocksPrefix = "blocks/"
	// VersionsPrefix namespaces version manifest payload and sidecar objects.
	VersionsPrefix = "versions/"
	// MetaSuffix is appended to a payload key to get its sidecar key.
	MetaSuffix = ".meta"

	blockObjectKeyLen = 16 + 1 + 16 // "%016x-%016x"
)

// ToKey prepends prefix and a two-level hex fan-out derived from the MD5 of
// objectKey, limiting directory cardinality on filesystem-like backends:
//
//	key = prefix || md5_hex(objectKey)[0:2] || "/" || md5_hex(objectKey)[2:4] || "/" || objectKey
func ToKey(prefix, objectKey string) string {
	sum := md5.Sum([]byte(objectKey)) //nolint:gosec
	digest := hex.EncodeToString(sum[:])
	return prefix + digest[0:2] + "/" + digest[2:4] + "/" + objectKey
}

// FromKey recovers the object key embedded in a backend key, verifying the
// prefix and the fan-out component's minimum length. A malformed key (wrong
// prefix, too short) is reported as corestore.ErrConfiguration-free plain
// error: callers enumerating objects treat it as "not one of ours" and skip
// it rather than failing the whole listing.
func FromKey(prefix, key string) (string, error) {
	if !strings.HasPrefix(key, prefix) {
		return "", fmt.Errorf("storekey: key %q does not start with prefix %q", key, prefix)
	}
	pl := len(prefix)
	if len(key) < pl+6 {
		return "", fmt.Errorf("storekey: key %q is shorter than the minimum %d characters", key, pl+6)
	}
	return key[pl+6:], nil
}

// BlockKey derives the payload key for a block UID.
func BlockKey(uid types.BlockUid) string {
	return ToKey(BlocksPrefix, uid.String())
}

// KeyToBlockUid parses a block payload key back into its UID.
func KeyToBlockUid(key string) (types.BlockUid, error) {
	objectKey, err := FromKey(BlocksPrefix, key)
	if err != nil {
		return types.BlockUid{}, err
	}
	if len(objectKey) != blockObjectKeyLen {
		return types.BlockUid{}, fmt.Errorf("storekey: object key %q has invalid length, want %d", objectKey, blockObjectKeyLen)
	}
	left, err := strconv.ParseUint(objectKey[0:16], 16, 64)
	if err != nil {
		return types.BlockUid{}, fmt.Errorf("storekey: invalid block uid %q: %w", objectKey, err)
	}
	right, err := strconv.ParseUint(objectKey[17:17+16], 16, 64)
	if err != nil {
		return types.BlockUid{}, fmt.Errorf("storekey: invalid block uid %q: %w", objectKey, err)
	}
	return types.BlockUid{Left: left, Right: right}, nil
}

// VersionKey derives the payload key for a version UID.
func VersionKey(uid types.VersionUid) string {
	return ToKey(VersionsPrefix, uid.Readable())
}

// KeyToVersionUid parses a version payload key back into its UID.
func KeyToVersionUid(key string) (types.VersionUid, error) {
	objectKey, err := FromKey(VersionsPrefix, key)
	if err != nil {
		return 0, err
	}
	uid, err := types.ParseVersionUid(objectKey)
	if err != nil {
		return 0, fmt.Errorf("storekey: %w", err)
	}
	return uid, nil
}

// MetaKey appends the sidecar suffix to a payload key.
func MetaKey(key string) string { return key + MetaSuffix }
