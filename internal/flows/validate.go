package flows

import (
	"context"
	"errors"

	tokenjwt "github.com/MrEthical07/goToken/jwt"
	"github.com/MrEthical07/goToken/revocation"
	"github.com/MrEthical07/goToken/risk"
)

// ValidateFailureKind classifies validation failures for root-level
// mapping. Failures are ordered by the check that produced them.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureMalformed
	ValidateFailureInvalidKeyID
	ValidateFailureSignature
	ValidateFailureExpired
	ValidateFailureRevoked
	ValidateFailureInactive
	ValidateFailureStoreUnavailable
	ValidateFailureHighRisk
)

// ValidateResult carries either verified claims with advisory warnings or
// a classified failure.
type ValidateResult struct {
	Failure  ValidateFailureKind
	Err      error
	Claims   *tokenjwt.Claims
	Warnings []risk.Factor
	Metadata *revocation.Metadata
}

// ValidateDeps captures validation flow dependencies. Revoke is invoked
// for risk escalation; the caller is responsible for detaching it from
// request cancellation so a forced revocation always runs to completion.
type ValidateDeps struct {
	Parse           func(string) (*tokenjwt.Claims, error)
	Fingerprint     func(string) string
	IsBlacklisted   func(context.Context, string) (bool, error)
	GetMetadata     func(context.Context, string) (*revocation.Metadata, error)
	DeleteMetadata  func(context.Context, string) error
	RiskFactors     func(risk.Context) []risk.Factor
	RevokeThreshold int
	Revoke          func(context.Context, string, string) error
	EmitAlert       func(context.Context, *tokenjwt.Claims, []risk.Factor, string, string)
	Warn            func(string, ...any)
}

// RunValidate verifies one token: cryptographic validity first, then store
// state, then contextual risk. Store failure is fail-closed.
func RunValidate(ctx context.Context, tokenStr, observedIP, observedUA string, deps ValidateDeps) ValidateResult {
	claims, err := deps.Parse(tokenStr)
	if err != nil {
		return classifyParseFailure(ctx, err, deps)
	}

	blacklisted, err := deps.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureStoreUnavailable, Err: err}
	}
	if blacklisted {
		return ValidateResult{Failure: ValidateFailureRevoked}
	}

	meta, err := deps.GetMetadata(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, revocation.ErrMetadataNotFound) {
			return ValidateResult{Failure: ValidateFailureInactive, Err: err}
		}
		return ValidateResult{Failure: ValidateFailureStoreUnavailable, Err: err}
	}
	if !meta.Active {
		return ValidateResult{Failure: ValidateFailureInactive}
	}

	observedFP := ""
	if observedUA != "" {
		observedFP = deps.Fingerprint(observedUA)
	}
	factors := deps.RiskFactors(risk.Context{
		IssuedIP:            claims.IPAddress,
		IssuedFingerprint:   claims.DeviceFingerprint,
		ObservedIP:          observedIP,
		ObservedFingerprint: observedFP,
	})

	if deps.RevokeThreshold > 0 && len(factors) >= deps.RevokeThreshold {
		// The forced revocation is a mandatory side effect of this result:
		// it happens before the rejection is returned.
		if err := deps.Revoke(ctx, claims.ID, revocation.ReasonHighRisk); err != nil {
			if deps.Warn != nil {
				deps.Warn("risk escalation revoke failed", "jti", claims.ID, "err", err)
			}
		}
		if deps.EmitAlert != nil {
			deps.EmitAlert(ctx, claims, factors, observedIP, observedUA)
		}
		return ValidateResult{
			Failure:  ValidateFailureHighRisk,
			Claims:   claims,
			Warnings: factors,
		}
	}

	return ValidateResult{
		Claims:   claims,
		Warnings: factors,
		Metadata: meta,
	}
}

func classifyParseFailure(ctx context.Context, err error, deps ValidateDeps) ValidateResult {
	switch {
	case errors.Is(err, tokenjwt.ErrMissingKeyID):
		return ValidateResult{Failure: ValidateFailureMalformed, Err: err}
	case errors.Is(err, tokenjwt.ErrUnknownKeyID):
		return ValidateResult{Failure: ValidateFailureInvalidKeyID, Err: err}
	case errors.Is(err, tokenjwt.ErrSignatureInvalid):
		return ValidateResult{Failure: ValidateFailureSignature, Err: err}
	case errors.Is(err, tokenjwt.ErrExpired):
		// Best-effort metadata cleanup; never fatal.
		if claims := tokenjwt.ExpiredClaims(err); claims != nil && deps.DeleteMetadata != nil {
			if cleanupErr := deps.DeleteMetadata(ctx, claims.ID); cleanupErr != nil && deps.Warn != nil {
				deps.Warn("expired token cleanup failed", "jti", claims.ID, "err", cleanupErr)
			}
		}
		return ValidateResult{Failure: ValidateFailureExpired, Err: err}
	default:
		return ValidateResult{Failure: ValidateFailureMalformed, Err: err}
	}
}
