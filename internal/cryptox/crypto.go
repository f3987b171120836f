// Package cryptox holds the hashing used to derive anonymous identifiers.
package cryptox

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/dmitrijs2005/formai/internal/common"
	"golang.org/x/crypto/blake2b"
)

// SeedSize is the length of an install seed. It is also the BLAKE2b key.
const SeedSize = 32

const userIDPrefix = "anon_"

var ErrInvalidSeed = errors.New("install seed must be 1..64 bytes")

// NewInstallSeed returns a fresh random seed for a new install.
func NewInstallSeed() []byte {
	return common.GenerateRandByteArray(SeedSize)
}

// DeriveUserID returns a stable anonymous user id for seed and an optional
// email. The email is trimmed and lower-cased first, so "A@x.io" and
// "a@x.io " map to the same id.
//
// The id is "anon_" followed by 32 hex characters of a keyed BLAKE2b-128
// digest; the seed is the key.
func DeriveUserID(seed []byte, email string) (string, error) {
	if len(seed) == 0 || len(seed) > blake2b.Size {
		return "", ErrInvalidSeed
	}

	h, err := blake2b.New(16, seed)
	if err != nil {
		return "", err
	}

	h.Write([]byte(NormalizeEmail(email)))
	return userIDPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
