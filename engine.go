package goToken

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrEthical07/goToken/internal"
	"github.com/MrEthical07/goToken/internal/flows"
	"github.com/MrEthical07/goToken/jwt"
	"github.com/MrEthical07/goToken/revocation"
	"github.com/MrEthical07/goToken/risk"
)

// timeNow is swapped in tests that need a fixed clock.
var timeNow = time.Now

// Engine is the token lifecycle manager: issuance, validation, refresh
// rotation, revocation, and key rotation behind one facade. Safe for
// concurrent use after [Builder.Build]; all mutable shared state lives in
// the external store.
type Engine struct {
	config  Config
	logger  *slog.Logger
	keyring *jwt.Keyring
	tokens  *jwt.Manager
	store   *revocation.Store
	alerts  *alertDispatcher
	metrics *Metrics
}

// Close drains and stops the alert dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.alerts != nil {
		e.alerts.Close()
	}
}

// RotateKeys generates and activates a new signing keypair. The previous
// key keeps verifying until its grace window lapses. Returns the new kid.
func (e *Engine) RotateKeys(ctx context.Context) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	kid, err := e.keyring.Rotate(ctx)
	if err != nil {
		e.logger.Error("key rotation failed", "err", err)
		return "", ErrKeyStoreUnavailable
	}
	e.metricInc(MetricKeyRotations)
	e.logger.Info("signing key rotated", "kid", kid)
	return kid, nil
}

// AlertsDropped reports how many security alerts were discarded because
// the dispatcher buffer was full.
func (e *Engine) AlertsDropped() uint64 {
	if e == nil || e.alerts == nil {
		return 0
	}
	return e.alerts.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) warn(msg string, args ...any) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger.Warn(msg, args...)
}

// revokeDetached performs a revocation that must run to completion even
// when the triggering request is cancelled mid-write. A half-applied
// revocation is a security gap.
func (e *Engine) revokeDetached(ctx context.Context, jti, reason string) error {
	_, err := e.store.Revoke(context.WithoutCancel(ctx), jti, reason)
	if err == nil {
		e.metricInc(MetricRevocations)
	}
	return err
}

func (e *Engine) emitAlert(_ context.Context, claims *jwt.Claims, factors []risk.Factor, ip, userAgent string) {
	if e.alerts == nil {
		return
	}
	e.alerts.Emit(SecurityAlert{
		Timestamp:   timeNow(),
		UserID:      claims.UserID(),
		AlertType:   "token_risk_revocation",
		Severity:    "high",
		RiskFactors: risk.Strings(factors),
		IP:          ip,
		UserAgent:   userAgent,
		JTI:         claims.ID,
	})
}

func (e *Engine) issueDeps() flows.IssueDeps {
	return flows.IssueDeps{
		NewTokenID: internal.NewTokenID,
		Now:        timeNow,
		AccessTTL:  e.config.JWT.AccessTTL,
		RefreshTTL: e.config.JWT.RefreshTTL,
		Sign:       e.tokens.Sign,
		SavePair:   e.store.SavePair,
	}
}

func (e *Engine) validateDeps() flows.ValidateDeps {
	return flows.ValidateDeps{
		Parse:           e.tokens.Parse,
		Fingerprint:     internal.Fingerprint,
		IsBlacklisted:   e.store.IsBlacklisted,
		GetMetadata:     e.store.Get,
		DeleteMetadata:  e.store.DeleteMetadata,
		RiskFactors:     risk.Factors,
		RevokeThreshold: e.config.Risk.RevokeThreshold,
		Revoke:          e.revokeDetached,
		EmitAlert:       e.emitAlert,
		Warn:            e.warn,
	}
}
