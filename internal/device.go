package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives a stable device fingerprint from free-form device
// info (typically a user-agent string). Whitespace runs are collapsed and
// case is folded before hashing so trivially different encodings of the
// same device agree.
func Fingerprint(deviceInfo string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(deviceInfo), " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
