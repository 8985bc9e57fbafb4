package flows

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	tokenjwt "github.com/MrEthical07/goToken/jwt"
	"github.com/MrEthical07/goToken/revocation"
)

// IssueFailureKind classifies issuance failures for root-level mapping.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureTokenID
	IssueFailureSign
	IssueFailurePersist
)

// IssueRequest carries the caller-supplied identity and context for a new
// pair. DeviceFingerprint is already derived by the caller.
type IssueRequest struct {
	UserID            string
	Permissions       []string
	Roles             []string
	DeviceFingerprint string
	IPAddress         string
}

// IssueResult carries either the signed pair or failure metadata.
type IssueResult struct {
	Failure      IssueFailureKind
	Err          error
	AccessToken  string
	RefreshToken string
	AccessJTI    string
	RefreshJTI   string
	ExpiresIn    time.Duration
}

// IssueDeps captures issuance flow dependencies.
type IssueDeps struct {
	NewTokenID func() (string, error)
	Now        func() time.Time
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Sign       func(context.Context, *tokenjwt.Claims) (string, error)
	SavePair   func(context.Context, *revocation.Metadata, *revocation.Metadata) error
}

// RunIssue mints a linked access/refresh pair. Issuance is all-or-nothing:
// tokens are only returned after both metadata records are persisted.
func RunIssue(ctx context.Context, req IssueRequest, deps IssueDeps) IssueResult {
	accessJTI, err := deps.NewTokenID()
	if err != nil {
		return IssueResult{Failure: IssueFailureTokenID, Err: err}
	}
	refreshJTI, err := deps.NewTokenID()
	if err != nil {
		return IssueResult{Failure: IssueFailureTokenID, Err: err}
	}

	now := deps.Now()
	accessClaims := buildClaims(req, tokenjwt.TypeAccess, accessJTI, now, deps.AccessTTL)
	refreshClaims := buildClaims(req, tokenjwt.TypeRefresh, refreshJTI, now, deps.RefreshTTL)

	accessToken, err := deps.Sign(ctx, accessClaims)
	if err != nil {
		return IssueResult{Failure: IssueFailureSign, Err: err}
	}
	refreshToken, err := deps.Sign(ctx, refreshClaims)
	if err != nil {
		return IssueResult{Failure: IssueFailureSign, Err: err}
	}

	accessMeta := buildMetadata(req, accessClaims, refreshJTI)
	refreshMeta := buildMetadata(req, refreshClaims, accessJTI)
	if err := deps.SavePair(ctx, accessMeta, refreshMeta); err != nil {
		return IssueResult{Failure: IssueFailurePersist, Err: err}
	}

	return IssueResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessJTI:    accessJTI,
		RefreshJTI:   refreshJTI,
		ExpiresIn:    deps.AccessTTL,
	}
}

func buildClaims(req IssueRequest, typ tokenjwt.TokenType, jti string, now time.Time, ttl time.Duration) *tokenjwt.Claims {
	return &tokenjwt.Claims{
		Scope:             req.Permissions,
		Roles:             req.Roles,
		DeviceFingerprint: req.DeviceFingerprint,
		IPAddress:         req.IPAddress,
		TokenType:         typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   req.UserID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func buildMetadata(req IssueRequest, claims *tokenjwt.Claims, linkedJTI string) *revocation.Metadata {
	return &revocation.Metadata{
		JTI:               claims.ID,
		UserID:            req.UserID,
		TokenType:         string(claims.TokenType),
		Active:            true,
		CreatedAt:         claims.IssuedAt.Time,
		ExpiresAt:         claims.ExpiresAt.Time,
		LinkedJTI:         linkedJTI,
		DeviceFingerprint: req.DeviceFingerprint,
		IPAddress:         req.IPAddress,
		Permissions:       req.Permissions,
	}
}
