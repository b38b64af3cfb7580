package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey maps a user ID (which may contain characters like ":" from
// guest identities) to a stable filesystem- and S3-safe key segment.
func HashUserKey(userId string) string {
	digest := sha256.Sum256([]byte(userId))
	return hex.EncodeToString(digest[:])
}
