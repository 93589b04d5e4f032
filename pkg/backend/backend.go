// Package backend defines the object-store contract the storage facade is
// built against. Concrete backends (filesystem, S3, B2, ...) are out of
// scope for this module; pkg/backend/memtest provides an in-memory
// implementation for tests and examples.
package backend

import "context"

// Backend is the abstract object store the facade composes with the key
// codec, transform pipeline, metadata envelope, throttle, and concurrency
// engine. Every method is keyed by the opaque backend key produced by
// pkg/storekey — a Backend implementation never sees a BlockUid or
// VersionUid directly.
type Backend interface {
	// WriteObject creates or overwrites key with data.
	WriteObject(ctx context.Context, key string, data []byte) error

	// ReadObject fetches key's full payload. Returns corestore.ErrNotFound
	// if key does not exist.
	ReadObject(ctx context.Context, key string) ([]byte, error)

	// ReadObjectLength reports key's payload length without fetching it.
	// Returns corestore.ErrNotFound if key does not exist.
	ReadObjectLength(ctx context.Context, key string) (int, error)

	// RmObject deletes key. Returns corestore.ErrNotFound if key does not
	// exist.
	RmObject(ctx context.Context, key string) error

	// RmManyObjects deletes every key in keys, returning the subset that
	// failed to delete (for a reason other than not-found).
	RmManyObjects(ctx context.Context, keys []string) (failed []string, err error)

	// ListObjects enumerates every key with the given prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}
