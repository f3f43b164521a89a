package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// OwnerKey returns a filesystem-safe identifier for a tenant ID, used as
// the first segment of object storage keys.
func OwnerKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// RandomID returns 16 random bytes hex encoded.
func RandomID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
