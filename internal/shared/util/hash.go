package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey returns a filesystem-safe identifier for a user ID or cache
// key. Principals carry prefixes like "guest:" and "google:", which are not
// safe as path segments, so object keys and cache file names hash them.
func HashUserKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
