package goToken

import (
	"time"

	"github.com/MrEthical07/goToken/jwt"
	"github.com/MrEthical07/goToken/risk"
)

// Status is the kind of a validation outcome. Every rejection is local to
// the presented token; none of them crashes the service.
type Status int

const (
	// StatusValid means the token passed every check. Warnings may still
	// carry sub-threshold risk factors.
	StatusValid Status = iota
	// StatusMalformed covers structural failures and claim policy failures
	// (issuer, audience, iat).
	StatusMalformed
	// StatusSignatureInvalid means the signature did not verify.
	StatusSignatureInvalid
	// StatusInvalidKeyID means the kid resolved to no current or
	// retired-unexpired key.
	StatusInvalidKeyID
	// StatusExpired means exp has passed.
	StatusExpired
	// StatusRevoked means the jti is on the blacklist.
	StatusRevoked
	// StatusInactive means the metadata record is missing or flagged
	// inactive.
	StatusInactive
	// StatusHighRisk means risk scoring met the revocation threshold; the
	// token was force-revoked before this result was returned.
	StatusHighRisk
	// StatusStoreUnavailable means the revocation store could not be
	// reached. Distinct from security rejections so callers can retry.
	StatusStoreUnavailable
)

var statusNames = map[Status]string{
	StatusValid:            "valid",
	StatusMalformed:        "malformed",
	StatusSignatureInvalid: "signature_invalid",
	StatusInvalidKeyID:     "invalid_key_id",
	StatusExpired:          "expired",
	StatusRevoked:          "revoked",
	StatusInactive:         "inactive",
	StatusHighRisk:         "high_risk",
	StatusStoreUnavailable: "store_unavailable",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// ValidationResult is returned by [Engine.Validate]. Claims is non-nil
// only for StatusValid and StatusHighRisk; Warnings carries advisory risk
// factors that stayed below the revocation threshold.
type ValidationResult struct {
	Status   Status
	Claims   *jwt.Claims
	Warnings []risk.Factor
	Err      error
}

// Valid reports whether the token passed validation.
func (r ValidationResult) Valid() bool {
	return r.Status == StatusValid
}

// TokenPair is an issued access/refresh pair. ExpiresIn is the access
// token lifetime.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// IssueRequest carries the identity and request context a pair is minted
// for. DeviceInfo is free-form (typically the user-agent); the engine
// derives the fingerprint.
type IssueRequest struct {
	UserID      string
	Permissions []string
	Roles       []string
	DeviceInfo  string
	IPAddress   string
}

// BatchItem is one token plus its observed request context for
// [Engine.ValidateMany].
type BatchItem struct {
	Token     string
	IPAddress string
	UserAgent string
}

// TokenInfo is the store-side view of a token returned by
// [Engine.Introspect].
type TokenInfo struct {
	JTI          string
	UserID       string
	TokenType    jwt.TokenType
	Active       bool
	CreatedAt    time.Time
	ExpiresAt    time.Time
	LinkedJTI    string
	RevokedAt    time.Time
	RevokeReason string
}
