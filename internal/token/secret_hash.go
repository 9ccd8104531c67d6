package token

import (
	"crypto/sha256"
	"crypto/subtle"
)

// HashSecret returns the SHA-256 digest of an opaque token secret.
// The ledger stores and queries digests only, never raw secrets.
func HashSecret(secret string) []byte {
	h := sha256.Sum256([]byte(secret))
	return h[:]
}

// SecretHashEqual compares two secret digests in constant time.
func SecretHashEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
