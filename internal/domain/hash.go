package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashMessageID returns the hex SHA-256 digest of a provider message id.
// The digest is the only message identifier that may be persisted.
func HashMessageID(messageID string) string {
	sum := sha256.Sum256([]byte(messageID))
	return hex.EncodeToString(sum[:])
}
