// Package config loads one or more named storage module configurations
// from YAML, validating the all-or-none and both-or-neither rules the
// facade and its collaborators depend on.
package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/benji-go/corestore/pkg/corestore"
	"github.com/benji-go/corestore/pkg/kdf"
)

// keyMaterial is the shared "direct key, or derive via KDF, or neither"
// shape used by both the hmac.* and encryption.* configuration groups: Key
// is used directly if set; otherwise KdfSalt, KdfIterations, and
// KdfPassword must all be set and the key is derived via pkg/kdf. Leaving
// every field unset yields no key at all.
type keyMaterial struct {
	Key           string `yaml:"key,omitempty"`
	KdfSalt       string `yaml:"kdfSalt,omitempty"`
	KdfIterations int    `yaml:"kdfIterations,omitempty"`
	KdfPassword   string `yaml:"kdfPassword,omitempty"`
}

func (k keyMaterial) empty() bool {
	return k.Key == "" && k.KdfSalt == "" && k.KdfIterations == 0 && k.KdfPassword == ""
}

func (k keyMaterial) validate(group string) error {
	if k.empty() || k.Key != "" {
		return nil
	}
	if k.KdfSalt != "" && k.KdfIterations != 0 && k.KdfPassword != "" {
		return nil
	}
	return fmt.Errorf("config: %w: %s.kdfSalt, %s.kdfIterations, and %s.kdfPassword must all be set together (or use %s.key, or none)",
		corestore.ErrConfiguration, group, group, group, group)
}

// resolve returns the configured key as raw bytes: Key hex-decoded if set,
// else derived via pkg/kdf from the (hex-decoded) KdfSalt, KdfIterations,
// and KdfPassword, else nil if the whole group is empty. Callers have
// already run validate, so the all-or-none shape is assumed here.
func (k keyMaterial) resolve() ([]byte, error) {
	if k.empty() {
		return nil, nil
	}
	if k.Key != "" {
		key, err := hex.DecodeString(k.Key)
		if err != nil {
			return nil, fmt.Errorf("config: decode key: %w", err)
		}
		return key, nil
	}
	salt, err := hex.DecodeString(k.KdfSalt)
	if err != nil {
		return nil, fmt.Errorf("config: decode kdfSalt: %w", err)
	}
	return kdf.DeriveKey(salt, k.KdfIterations, k.KdfPassword)
}

// HMAC configures the metadata envelope's integrity key.
type HMAC struct {
	keyMaterial `yaml:",inline"`
}

func (h HMAC) validate() error { return h.keyMaterial.validate("hmac") }

// Resolve returns the configured HMAC key, or nil if none was configured.
func (h HMAC) Resolve() ([]byte, error) { return h.keyMaterial.resolve() }

// Encryption configures the aes transform's key, consumed only when
// activeTransforms includes "aes". Leaving every field unset means
// activating "aes" fails at storage.NewFromConfig, not at Parse time,
// since the two settings are independent.
type Encryption struct {
	keyMaterial `yaml:",inline"`
}

func (e Encryption) validate() error { return e.keyMaterial.validate("encryption") }

// Resolve returns the configured encryption key, or nil if none was
// configured.
func (e Encryption) Resolve() ([]byte, error) { return e.keyMaterial.resolve() }

// ReadCache configures the optional read-through disk cache. Directory and
// MaximumSize must both be set or both be zero.
type ReadCache struct {
	Directory   string `yaml:"directory,omitempty"`
	MaximumSize int64  `yaml:"maximumSize,omitempty"`
}

func (r ReadCache) validate() error {
	if (r.Directory == "") == (r.MaximumSize == 0) {
		return nil
	}
	return fmt.Errorf("config: %w: readCache.directory and readCache.maximumSize must both be set or both be zero", corestore.ErrConfiguration)
}

// Storage is the recognized configuration shape for one named storage
// module, mirroring spec.md §6's key list.
type Storage struct {
	SimultaneousReads  int `yaml:"simultaneousReads"`
	SimultaneousWrites int `yaml:"simultaneousWrites"`

	BandwidthRead  int `yaml:"bandwidthRead,omitempty"`
	BandwidthWrite int `yaml:"bandwidthWrite,omitempty"`

	ConsistencyCheckWrites bool `yaml:"consistencyCheckWrites,omitempty"`

	ActiveTransforms []string `yaml:"activeTransforms,omitempty"`

	HMAC       HMAC       `yaml:"hmac,omitempty"`
	Encryption Encryption `yaml:"encryption,omitempty"`
	ReadCache  ReadCache  `yaml:"readCache,omitempty"`
}

func (s Storage) validate(name string) error {
	if s.SimultaneousReads <= 0 {
		return fmt.Errorf("config: %w: %s.simultaneousReads must be positive", corestore.ErrConfiguration, name)
	}
	if s.SimultaneousWrites <= 0 {
		return fmt.Errorf("config: %w: %s.simultaneousWrites must be positive", corestore.ErrConfiguration, name)
	}
	if err := s.HMAC.validate(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := s.Encryption.validate(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := s.ReadCache.validate(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// File is the top-level document: a map of storage module name to its
// configuration, allowing a single file to describe every module a binary
// built on this core would open.
type File struct {
	Storages map[string]Storage `yaml:"storages"`
}

// Load reads and parses the YAML document at path, validating every
// storage entry it contains.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates and decodes a YAML document already in memory.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("config: parse: %w", err)
	}
	for name, s := range f.Storages {
		if err := s.validate(name); err != nil {
			return File{}, err
		}
	}
	return f, nil
}
