// Package memtest provides an in-memory backend.Backend for tests and
// examples. It is not a production backend: concrete backends (filesystem,
// S3, B2, ...) are out of scope for this module.
package memtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/benji-go/corestore/pkg/backend"
	"github.com/benji-go/corestore/pkg/corestore"
)

var _ backend.Backend = (*Backend)(nil)

// Backend is a goroutine-safe, in-memory object store.
type Backend struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailWrite, when set, is returned by WriteObject for the named key
	// instead of performing the write — used to exercise the facade's
	// best-effort cleanup on partial-write failure.
	FailWrite map[string]error
}

// New returns an empty Backend.
func New() *Backend {
	return &Backend{objects: make(map[string][]byte)}
}

func (b *Backend) WriteObject(_ context.Context, key string, data []byte) error {
	if err, ok := b.FailWrite[key]; ok {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	b.objects[key] = cp
	return nil
}

func (b *Backend) ReadObject(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, corestore.Wrap("read_object", key, corestore.ErrNotFound)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (b *Backend) ReadObjectLength(_ context.Context, key string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[key]
	if !ok {
		return 0, corestore.Wrap("read_object_length", key, corestore.ErrNotFound)
	}
	return len(data), nil
}

func (b *Backend) RmObject(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[key]; !ok {
		return corestore.Wrap("rm_object", key, corestore.ErrNotFound)
	}
	delete(b.objects, key)
	return nil
}

func (b *Backend) RmManyObjects(ctx context.Context, keys []string) ([]string, error) {
	var failed []string
	for _, key := range keys {
		if err := b.RmObject(ctx, key); err != nil && !errors.Is(err, corestore.ErrNotFound) {
			failed = append(failed, key)
		}
	}
	if len(failed) > 0 {
		return failed, fmt.Errorf("memtest: %d object(s) failed to delete", len(failed))
	}
	return nil, nil
}

func (b *Backend) ListObjects(_ context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var keys []string
	for k := range b.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Len reports how many objects are currently stored, for test assertions.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
