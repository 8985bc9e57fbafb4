package internal

import (
	"crypto/rand"
	"encoding/base64"
)

// tokenIDSize is the raw entropy of a jti. 32 bytes keeps collision
// probability negligible across the whole refresh window.
const tokenIDSize = 32

// NewTokenID returns a fresh cryptographically random token identifier,
// encoded as compact base64url without padding.
func NewTokenID() (string, error) {
	var raw [tokenIDSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
