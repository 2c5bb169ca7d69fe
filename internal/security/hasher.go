// Package security provides the cryptographic primitives of the service:
// password hashing, signed token encoding/decoding, PEM key loading, and
// session key generation.
package security

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	hasherScheme  = "pbkdf2-sha512"
	hasherSaltLen = 10
	hasherKeyLen  = 64

	// MinHashRounds is the lowest iteration count NewHasher accepts.
	MinHashRounds = 10000
)

// Hasher hashes and verifies passwords using PBKDF2-SHA512 with a random
// per-password salt. Callers must not log or persist plaintext passwords, and
// must not hold locks or store transactions open across Hash/Verify calls:
// key derivation is intentionally CPU-expensive.
type Hasher struct {
	rounds int
}

// NewHasher returns a Hasher with the given iteration count. Counts below
// MinHashRounds are clamped up.
func NewHasher(rounds int) *Hasher {
	if rounds < MinHashRounds {
		rounds = MinHashRounds
	}
	return &Hasher{rounds: rounds}
}

// Hash derives a key from password with a fresh random salt and returns a
// self-contained encoding: pbkdf2-sha512$<rounds>$<salt>$<key>.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, hasherSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("hasher: salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, h.rounds, hasherKeyLen, sha512.New)
	return strings.Join([]string{
		hasherScheme,
		strconv.Itoa(h.rounds),
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	}, "$"), nil
}

// Verify reports whether password matches the encoded hash. Malformed or
// truncated encodings verify as false; Verify never fails with an error.
// The rounds count embedded in the encoding is used, so hashes created with
// an older iteration count keep verifying after config changes.
func (h *Hasher) Verify(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 || parts[0] != hasherScheme {
		return false
	}
	rounds, err := strconv.Atoi(parts[1])
	if err != nil || rounds <= 0 {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, rounds, len(want), sha512.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
