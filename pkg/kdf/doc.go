// Package kdf derives the metadata envelope's HMAC key from a password via
// PBKDF2-HMAC-SHA256, for the salt/iterations/password configuration group
// described in pkg/config.
package kdf
