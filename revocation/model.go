package revocation

import "time"

// Revocation reasons written by the engine. Stored verbatim in both the
// blacklist entry and the metadata record.
const (
	// ReasonHighRisk marks a forced revocation triggered by risk scoring.
	ReasonHighRisk = "high_risk"
	// ReasonTokenRefreshed marks the rotation of a pair during refresh.
	ReasonTokenRefreshed = "token_refreshed"
)

// Metadata is the per-jti record owned by the store. Created atomically at
// issuance, mutated only by revocation (Active flips to false exactly
// once), and destroyed implicitly when its TTL lapses.
type Metadata struct {
	JTI               string
	UserID            string
	TokenType         string
	Active            bool
	CreatedAt         time.Time
	ExpiresAt         time.Time
	LinkedJTI         string
	DeviceFingerprint string
	IPAddress         string
	Permissions       []string
	RevokedAt         time.Time
	RevokeReason      string
}
