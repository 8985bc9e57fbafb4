package flows

import (
	"context"

	tokenjwt "github.com/MrEthical07/goToken/jwt"
	"github.com/MrEthical07/goToken/revocation"
)

// RefreshFailureKind classifies refresh flow failures for root-level
// mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureValidate
	RefreshFailureNotRefreshToken
	RefreshFailureRevokeOld
	RefreshFailureIssue
)

// RefreshResult carries either the replacement pair or failure metadata.
// On RefreshFailureValidate the nested Validation result holds the precise
// rejection; on RefreshFailureIssue the nested Issue result does.
type RefreshResult struct {
	Failure    RefreshFailureKind
	Err        error
	Validation ValidateResult
	Issue      IssueResult
}

// RefreshDeps captures refresh flow dependencies. Revoke must be detached
// from request cancellation by the caller: a half-rotated pair is a
// security gap.
type RefreshDeps struct {
	Validate func(context.Context, string, string) ValidateResult
	Revoke   func(context.Context, string, string) error
	Issue    func(context.Context, IssueRequest) IssueResult
}

// RunRefresh rotates a refresh token: the presented token and its linked
// access token are revoked before a replacement pair is issued from the
// original claims.
func RunRefresh(ctx context.Context, refreshToken, clientIP string, deps RefreshDeps) RefreshResult {
	vr := deps.Validate(ctx, refreshToken, clientIP)
	if vr.Failure != ValidateFailureNone {
		return RefreshResult{Failure: RefreshFailureValidate, Err: vr.Err, Validation: vr}
	}
	if vr.Claims.TokenType != tokenjwt.TypeRefresh {
		return RefreshResult{Failure: RefreshFailureNotRefreshToken, Validation: vr}
	}

	if err := deps.Revoke(ctx, vr.Claims.ID, revocation.ReasonTokenRefreshed); err != nil {
		return RefreshResult{Failure: RefreshFailureRevokeOld, Err: err, Validation: vr}
	}
	if linked := vr.Metadata.LinkedJTI; linked != "" {
		if err := deps.Revoke(ctx, linked, revocation.ReasonTokenRefreshed); err != nil {
			return RefreshResult{Failure: RefreshFailureRevokeOld, Err: err, Validation: vr}
		}
	}

	ir := deps.Issue(ctx, IssueRequest{
		UserID:            vr.Claims.UserID(),
		Permissions:       vr.Claims.Scope,
		Roles:             vr.Claims.Roles,
		DeviceFingerprint: vr.Claims.DeviceFingerprint,
		IPAddress:         clientIP,
	})
	if ir.Failure != IssueFailureNone {
		return RefreshResult{Failure: RefreshFailureIssue, Err: ir.Err, Validation: vr, Issue: ir}
	}

	return RefreshResult{Validation: vr, Issue: ir}
}
