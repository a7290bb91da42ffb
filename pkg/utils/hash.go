package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashString returns a short stable digest, used for cache keys and for
// assigning IDs to ingested documents that ship without one.
func HashString(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:16])
}
