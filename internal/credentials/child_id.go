package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// ChildIDPrefix is the fixed human-readable prefix on every child identifier
const ChildIDPrefix = "CH-"

// childIDRandomBytes of entropy yields an 8-hex-character suffix,
// e.g. "CH-9F2A7C3B". Collisions are practically impossible but the
// database UNIQUE constraint remains the authority.
const childIDRandomBytes = 4

// GenerateChildID generates a candidate public child identifier.
// Callers must retry on a storage-layer collision.
func GenerateChildID() (string, error) {
	buf := make([]byte, childIDRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return ChildIDPrefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}
