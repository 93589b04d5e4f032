package config

import (
	"errors"
	"testing"

	"github.com/benji-go/corestore/pkg/corestore"
)

func TestParse_MinimalValid(t *testing.T) {
	doc := []byte(`
storages:
  primary:
    simultaneousReads: 4
    simultaneousWrites: 2
`)
	f, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	s, ok := f.Storages["primary"]
	if !ok {
		t.Fatal(`Parse() missing "primary" entry`)
	}
	if s.SimultaneousReads != 4 || s.SimultaneousWrites != 2 {
		t.Errorf("Parse() = %+v, want SimultaneousReads=4 SimultaneousWrites=2", s)
	}
}

func TestParse_FullOptions(t *testing.T) {
	doc := []byte(`
storages:
  primary:
    simultaneousReads: 4
    simultaneousWrites: 2
    bandwidthRead: 1048576
    bandwidthWrite: 524288
    consistencyCheckWrites: true
    activeTransforms: ["zlib", "aes"]
    hmac:
      key: deadbeef
    readCache:
      directory: /var/cache/corestore
      maximumSize: 104857600
`)
	f, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	s := f.Storages["primary"]
	if !s.ConsistencyCheckWrites {
		t.Error("ConsistencyCheckWrites = false, want true")
	}
	if len(s.ActiveTransforms) != 2 || s.ActiveTransforms[0] != "zlib" || s.ActiveTransforms[1] != "aes" {
		t.Errorf("ActiveTransforms = %v, want [zlib aes]", s.ActiveTransforms)
	}
	if s.HMAC.Key != "deadbeef" {
		t.Errorf("HMAC.Key = %q, want %q", s.HMAC.Key, "deadbeef")
	}
	if s.ReadCache.Directory != "/var/cache/corestore" || s.ReadCache.MaximumSize != 104857600 {
		t.Errorf("ReadCache = %+v, want directory+maximumSize set", s.ReadCache)
	}
}

func TestParse_RequiredFieldsMissing(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing simultaneousReads", doc: "storages:\n  p:\n    simultaneousWrites: 2\n"},
		{name: "zero simultaneousWrites", doc: "storages:\n  p:\n    simultaneousReads: 2\n    simultaneousWrites: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); !errors.Is(err, corestore.ErrConfiguration) {
				t.Fatalf("Parse() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestParse_HMACPartialKdfGroupRejected(t *testing.T) {
	doc := []byte(`
storages:
  p:
    simultaneousReads: 1
    simultaneousWrites: 1
    hmac:
      kdfSalt: deadbeef
      kdfIterations: 4096
`)
	if _, err := Parse(doc); !errors.Is(err, corestore.ErrConfiguration) {
		t.Fatalf("Parse() with partial kdf group error = %v, want ErrConfiguration", err)
	}
}

func TestParse_HMACFullKdfGroupAccepted(t *testing.T) {
	doc := []byte(`
storages:
  p:
    simultaneousReads: 1
    simultaneousWrites: 1
    hmac:
      kdfSalt: deadbeef
      kdfIterations: 4096
      kdfPassword: hunter2
`)
	f, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	s := f.Storages["p"]
	if s.HMAC.KdfPassword != "hunter2" {
		t.Errorf("HMAC.KdfPassword = %q, want %q", s.HMAC.KdfPassword, "hunter2")
	}
}

func TestHMAC_ResolveDerivesViaKdf(t *testing.T) {
	doc := []byte(`
storages:
  p:
    simultaneousReads: 1
    simultaneousWrites: 1
    hmac:
      kdfSalt: deadbeef
      kdfIterations: 4096
      kdfPassword: hunter2
`)
	f, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	key, err := f.Storages["p"].HMAC.Resolve()
	if err != nil {
		t.Fatalf("HMAC.Resolve() error = %v", err)
	}
	if len(key) != 32 {
		t.Errorf("HMAC.Resolve() key length = %d, want 32", len(key))
	}
}

func TestHMAC_ResolveEmptyIsNil(t *testing.T) {
	doc := []byte(`
storages:
  p:
    simultaneousReads: 1
    simultaneousWrites: 1
`)
	f, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	key, err := f.Storages["p"].HMAC.Resolve()
	if err != nil {
		t.Fatalf("HMAC.Resolve() error = %v", err)
	}
	if key != nil {
		t.Errorf("HMAC.Resolve() = %x, want nil", key)
	}
}

func TestParse_HMACNoneIsValid(t *testing.T) {
	doc := []byte(`
storages:
  p:
    simultaneousReads: 1
    simultaneousWrites: 1
`)
	if _, err := Parse(doc); err != nil {
		t.Fatalf("Parse() with no hmac group error = %v, want nil", err)
	}
}

func TestParse_ReadCachePartialGroupRejected(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "directory without maximumSize",
			doc: "storages:\n  p:\n    simultaneousReads: 1\n    simultaneousWrites: 1\n" +
				"    readCache:\n      directory: /tmp/cache\n",
		},
		{
			name: "maximumSize without directory",
			doc: "storages:\n  p:\n    simultaneousReads: 1\n    simultaneousWrites: 1\n" +
				"    readCache:\n      maximumSize: 1024\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); !errors.Is(err, corestore.ErrConfiguration) {
				t.Fatalf("Parse() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestParse_EncryptionPartialKdfGroupRejected(t *testing.T) {
	doc := []byte(`
storages:
  p:
    simultaneousReads: 1
    simultaneousWrites: 1
    activeTransforms: ["aes"]
    encryption:
      kdfSalt: deadbeef
      kdfIterations: 4096
`)
	if _, err := Parse(doc); !errors.Is(err, corestore.ErrConfiguration) {
		t.Fatalf("Parse() with partial encryption kdf group error = %v, want ErrConfiguration", err)
	}
}

func TestParse_EncryptionKeyAccepted(t *testing.T) {
	doc := []byte(`
storages:
  p:
    simultaneousReads: 1
    simultaneousWrites: 1
    activeTransforms: ["aes"]
    encryption:
      key: deadbeef
`)
	f, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	s := f.Storages["p"]
	key, err := s.Encryption.Resolve()
	if err != nil {
		t.Fatalf("Encryption.Resolve() error = %v", err)
	}
	if string(key) != "\xde\xad\xbe\xef" {
		t.Errorf("Encryption.Resolve() = %x, want deadbeef", key)
	}
}

func TestParse_MultipleStorages(t *testing.T) {
	doc := []byte(`
storages:
  primary:
    simultaneousReads: 4
    simultaneousWrites: 2
  secondary:
    simultaneousReads: 1
    simultaneousWrites: 1
`)
	f, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(f.Storages) != 2 {
		t.Errorf("len(Storages) = %d, want 2", len(f.Storages))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/corestore.yaml"); err == nil {
		t.Error("Load() on missing file expected error, got nil")
	}
}
