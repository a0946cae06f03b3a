package watch

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent returns the SHA-256 hex digest of content. Hash equality is
// the sole change-detection mechanism: comparison is byte-exact, so
// semantically equivalent content (whitespace, reordering) that differs in
// bytes counts as changed. Canonicalize before hashing when that matters.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
