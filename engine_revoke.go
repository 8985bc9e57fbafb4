package goToken

import (
	"context"
	"errors"
	"fmt"
)

// Revoke blacklists a jti and flips its metadata inactive. Idempotent:
// revoking an already-revoked jti changes nothing.
func (e *Engine) Revoke(ctx context.Context, jti, reason string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if jti == "" {
		return errors.New("revoke requires a jti")
	}
	if err := e.revokeDetached(ctx, jti, reason); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// RevokeAllForUser revokes every active token of a user and clears the
// user's token index. Returns the number of tokens this call revoked.
func (e *Engine) RevokeAllForUser(ctx context.Context, userID, reason string) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	count, err := e.store.RevokeAllForUser(context.WithoutCancel(ctx), userID, reason)
	if err != nil {
		return count, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	e.metricInc(MetricRevokeAllSweeps)
	for i := 0; i < count; i++ {
		e.metricInc(MetricRevocations)
	}
	return count, nil
}
