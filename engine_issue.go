package goToken

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goToken/internal"
	"github.com/MrEthical07/goToken/internal/flows"
	"github.com/MrEthical07/goToken/jwt"
)

// IssuePair mints a linked access/refresh pair for a user. Both tokens
// carry the same device fingerprint and IP; both metadata records are
// persisted atomically before any token is returned.
func (e *Engine) IssuePair(ctx context.Context, req IssueRequest) (*TokenPair, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if req.UserID == "" {
		return nil, errors.New("issue request requires a user id")
	}

	res := flows.RunIssue(ctx, flows.IssueRequest{
		UserID:            req.UserID,
		Permissions:       req.Permissions,
		Roles:             req.Roles,
		DeviceFingerprint: internal.Fingerprint(req.DeviceInfo),
		IPAddress:         req.IPAddress,
	}, e.issueDeps())

	switch res.Failure {
	case flows.IssueFailureNone:
		e.metricInc(MetricPairsIssued)
		return &TokenPair{
			AccessToken:  res.AccessToken,
			RefreshToken: res.RefreshToken,
			ExpiresIn:    res.ExpiresIn,
		}, nil
	case flows.IssueFailureSign:
		e.metricInc(MetricIssueFailure)
		if errors.Is(res.Err, jwt.ErrKeyUnavailable) {
			// Loud on purpose: a missing signing key must never degrade
			// into a signing bypass.
			e.logger.Error("issuance halted: no current signing key", "err", res.Err)
			return nil, ErrKeyStoreUnavailable
		}
		return nil, res.Err
	case flows.IssueFailurePersist:
		e.metricInc(MetricIssueFailure)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
	default:
		e.metricInc(MetricIssueFailure)
		return nil, res.Err
	}
}
