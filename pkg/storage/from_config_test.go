package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/benji-go/corestore/pkg/backend/memtest"
	"github.com/benji-go/corestore/pkg/config"
	"github.com/benji-go/corestore/pkg/corestore"
	"github.com/benji-go/corestore/pkg/types"
)

// TestNewFromConfig_RoundTrip exercises the bridge end to end: a parsed
// config.Storage with activeTransforms=["zlib","aes"] and a direct HMAC
// key builds a Storage that saves and reads back a block correctly,
// proving the parsed transform/HMAC config is actually wired in rather
// than merely validated.
func TestNewFromConfig_RoundTrip(t *testing.T) {
	doc := []byte(`
storages:
  blockpool:
    simultaneousReads: 2
    simultaneousWrites: 2
    activeTransforms: ["zlib", "aes"]
    hmac:
      key: "00112233445566778899aabbccddeeff00112233445566778899aabbccddee"
    encryption:
      key: "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"
`)
	f, err := config.Parse(doc)
	if err != nil {
		t.Fatalf("config.Parse() error = %v", err)
	}
	cfg := f.Storages["blockpool"]

	be := memtest.New()
	s, err := NewFromConfig("blockpool", cfg, be)
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	block := types.Block{Uid: types.BlockUid{Left: 7, Right: 9}, Size: 5, Checksum: "deadbeef"}
	if err := s.Save(ctx, block, []byte("hello"), true); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	result, err := s.Read(ctx, block, true, false)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(result.Data, []byte("hello")) {
		t.Errorf("Read() data = %q, want %q", result.Data, "hello")
	}
	if len(result.Metadata.Transforms) != 2 {
		t.Fatalf("Transforms = %v, want 2 entries (zlib, aes)", result.Metadata.Transforms)
	}
	if result.Metadata.HMAC == "" {
		t.Error("Metadata.HMAC is empty, want a computed HMAC since hmac.key was configured")
	}
}

// TestNewFromConfig_AesWithoutEncryptionKey confirms activating "aes"
// without an encryption key fails fast instead of silently building a
// chain that can never encapsulate.
func TestNewFromConfig_AesWithoutEncryptionKey(t *testing.T) {
	cfg := config.Storage{
		SimultaneousReads:  1,
		SimultaneousWrites: 1,
		ActiveTransforms:   []string{"aes"},
	}
	be := memtest.New()
	_, err := NewFromConfig("blockpool", cfg, be)
	if err == nil {
		t.Fatal("NewFromConfig() error = nil, want configuration error")
	}
	if !errors.Is(err, corestore.ErrConfiguration) {
		t.Errorf("NewFromConfig() error = %v, want corestore.ErrConfiguration", err)
	}
}

// TestNewFromConfig_UnknownTransformRejected confirms an unregistered
// transform name in activeTransforms fails instead of being silently
// dropped.
func TestNewFromConfig_UnknownTransformRejected(t *testing.T) {
	cfg := config.Storage{
		SimultaneousReads:  1,
		SimultaneousWrites: 1,
		ActiveTransforms:   []string{"brotli"},
	}
	be := memtest.New()
	_, err := NewFromConfig("blockpool", cfg, be)
	if err == nil {
		t.Fatal("NewFromConfig() error = nil, want configuration error for unknown transform")
	}
}

