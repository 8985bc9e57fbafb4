package goToken

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goToken/internal/flows"
	"github.com/MrEthical07/goToken/jwt"
)

// Refresh rotates a pair: the presented refresh token and its linked
// access token are revoked with reason "token_refreshed", then a
// replacement pair is issued from the original claims. Presenting a
// well-formed access token here fails with ErrNotARefreshToken.
func (e *Engine) Refresh(ctx context.Context, refreshToken, clientIP string) (*TokenPair, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	res := flows.RunRefresh(ctx, refreshToken, clientIP, flows.RefreshDeps{
		Validate: func(ctx context.Context, token, ip string) flows.ValidateResult {
			// No user-agent is observed on the refresh path; only the IP
			// participates in risk scoring.
			return flows.RunValidate(ctx, token, ip, "", e.validateDeps())
		},
		Revoke: e.revokeDetached,
		Issue: func(ctx context.Context, req flows.IssueRequest) flows.IssueResult {
			return flows.RunIssue(ctx, req, e.issueDeps())
		},
	})

	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		return &TokenPair{
			AccessToken:  res.Issue.AccessToken,
			RefreshToken: res.Issue.RefreshToken,
			ExpiresIn:    res.Issue.ExpiresIn,
		}, nil
	case flows.RefreshFailureNotRefreshToken:
		e.metricInc(MetricRefreshFailure)
		return nil, ErrNotARefreshToken
	case flows.RefreshFailureValidate:
		e.metricInc(MetricRefreshFailure)
		vr := e.mapValidateResult(res.Validation)
		if vr.Status == StatusStoreUnavailable {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, vr.Err)
		}
		return nil, fmt.Errorf("%w: %s", ErrRefreshInvalid, vr.Status)
	case flows.RefreshFailureRevokeOld:
		// Fail closed: a new pair is never issued while the old one might
		// still be live.
		e.metricInc(MetricRefreshFailure)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
	case flows.RefreshFailureIssue:
		e.metricInc(MetricRefreshFailure)
		switch res.Issue.Failure {
		case flows.IssueFailureSign:
			if errors.Is(res.Err, jwt.ErrKeyUnavailable) {
				e.logger.Error("refresh halted: no current signing key", "err", res.Err)
				return nil, ErrKeyStoreUnavailable
			}
			return nil, res.Err
		case flows.IssueFailurePersist:
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
		default:
			return nil, res.Err
		}
	default:
		e.metricInc(MetricRefreshFailure)
		return nil, res.Err
	}
}
