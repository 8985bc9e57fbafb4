package goToken

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goToken/jwt"
	"github.com/MrEthical07/goToken/revocation"
)

// Introspect reports the store-side state of a presented token without
// running risk evaluation and without side effects. Expired tokens still
// introspect as long as their metadata record survives.
func (e *Engine) Introspect(ctx context.Context, token string) (*TokenInfo, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.Parse(token)
	if err != nil {
		if !errors.Is(err, jwt.ErrExpired) {
			return nil, err
		}
		claims = jwt.ExpiredClaims(err)
		if claims == nil {
			return nil, err
		}
	}

	meta, err := e.store.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, revocation.ErrMetadataNotFound) {
			return &TokenInfo{
				JTI:       claims.ID,
				UserID:    claims.UserID(),
				TokenType: claims.TokenType,
				Active:    false,
			}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	blacklisted, err := e.store.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &TokenInfo{
		JTI:          meta.JTI,
		UserID:       meta.UserID,
		TokenType:    jwt.TokenType(meta.TokenType),
		Active:       meta.Active && !blacklisted,
		CreatedAt:    meta.CreatedAt,
		ExpiresAt:    meta.ExpiresAt,
		LinkedJTI:    meta.LinkedJTI,
		RevokedAt:    meta.RevokedAt,
		RevokeReason: meta.RevokeReason,
	}, nil
}
