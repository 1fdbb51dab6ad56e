package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// paserkLocalPrefix is how keys were exported by the previous deployment
const paserkLocalPrefix = "k4.local."

// SymmetricKey is the 256 bit session encryption key
type SymmetricKey [32]byte

// GenerateSymmetricKey returns a random key
func GenerateSymmetricKey() (SymmetricKey, error) {
	var k SymmetricKey
	if _, err := io.ReadFull(rand.Reader, k[:]); err != nil {
		return k, fmt.Errorf("generate session key: %w", err)
	}
	return k, nil
}

// ParseSymmetricKey accepts "k4.local.<base64url>" or a bare base64 (std or
// url alphabet, padded or not) encoding of exactly 32 bytes.
func ParseSymmetricKey(s string) (SymmetricKey, error) {
	var k SymmetricKey

	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, paserkLocalPrefix)
	s = strings.TrimRight(s, "=")
	if s == "" {
		return k, ErrInvalidKey
	}

	var raw []byte
	var err error
	if strings.ContainsAny(s, "+/") {
		raw, err = base64.RawStdEncoding.DecodeString(s)
	} else {
		raw, err = base64.RawURLEncoding.DecodeString(s)
	}
	if err != nil {
		return k, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != len(k) {
		return k, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, len(k), len(raw))
	}

	copy(k[:], raw)
	return k, nil
}

// Encode returns the key in "k4.local." form
func (k SymmetricKey) Encode() string {
	return paserkLocalPrefix + base64.RawURLEncoding.EncodeToString(k[:])
}

// String never prints key material
func (k SymmetricKey) String() string {
	return "SymmetricKey(redacted)"
}
