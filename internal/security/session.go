package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// sessionKeyBytes is the entropy of a session key. 32 bytes encode to a
// 43-char URL-safe string; the sessions.key column is varchar(44).
const sessionKeyBytes = 32

// NewSessionKey returns a high-entropy random URL-safe session key. Keys are
// drawn from a 256-bit space, so collisions between concurrent logins are
// negligible and no uniqueness check is needed before insert.
func NewSessionKey() (string, error) {
	b := make([]byte, sessionKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
