package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// generateSecret returns a fresh 32-byte random bearer value, hex-encoded.
func generateSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("auth: failed to read random bytes: " + err.Error())
	}
	return hex.EncodeToString(b)
}
