// Package kdf derives the HMAC key used by the metadata envelope from a
// password, the way the cluster secrets manager once derived an encryption
// key from a low-entropy cluster ID — except the inputs here (an
// operator-supplied password plus an attacker-influenced iteration count)
// call for a proper iterated KDF rather than a single SHA-256 pass.
package kdf

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// KeyLen is the derived key length in bytes: sufficient for HMAC-SHA256
// and for seeding an AES-256 key.
const KeyLen = 32

// DeriveKey derives a KeyLen-byte key from password using PBKDF2-HMAC-SHA256
// with the given salt and iteration count. All three inputs must be
// non-empty/positive; this mirrors the "all three or none" configuration
// rule pkg/config enforces around its hmac.kdf* and encryption.kdf* settings.
func DeriveKey(salt []byte, iterations int, password string) ([]byte, error) {
	if len(salt) == 0 {
		return nil, fmt.Errorf("kdf: salt must not be empty")
	}
	if iterations <= 0 {
		return nil, fmt.Errorf("kdf: iterations must be positive, got %d", iterations)
	}
	if password == "" {
		return nil, fmt.Errorf("kdf: password must not be empty")
	}
	return pbkdf2.Key([]byte(password), salt, iterations, KeyLen, sha256.New), nil
}
