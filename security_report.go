package goToken

import "time"

// SecurityReport summarizes the engine's security posture for operators
// and startup logs.
type SecurityReport struct {
	SigningAlgorithm    string
	AccessTTL           time.Duration
	RefreshTTL          time.Duration
	KeyGraceWindow      time.Duration
	KeyPersistence      bool
	RiskRevokeThreshold int
	AlertingEnabled     bool
	ClockLeeway         time.Duration
}

// SecurityReport reports the effective configuration. Safe to call on a
// nil engine.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}
	return SecurityReport{
		SigningAlgorithm:    "EdDSA",
		AccessTTL:           e.config.JWT.AccessTTL,
		RefreshTTL:          e.config.JWT.RefreshTTL,
		KeyGraceWindow:      e.config.Keys.GraceWindow,
		KeyPersistence:      e.config.Keys.Persist,
		RiskRevokeThreshold: e.config.Risk.RevokeThreshold,
		AlertingEnabled:     e.config.Alert.Enabled,
		ClockLeeway:         e.config.JWT.Leeway,
	}
}
