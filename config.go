package goToken

import (
	"errors"
	"time"
)

// Config groups every tunable of the engine. New seeds a builder with
// defaultConfig; WithConfig replaces it wholesale and Build validates it.
type Config struct {
	JWT   JWTConfig
	Keys  KeyConfig
	Store StoreConfig
	Risk  RiskConfig
	Alert AlertConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls token lifetimes and registered-claim policy.
type JWTConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Audience   string
	Leeway     time.Duration
}

/*
====================================
KEY CONFIG
====================================
*/

// KeyConfig controls signing key rotation.
type KeyConfig struct {
	// GraceWindow is how long a rotated-out key keeps verifying tokens
	// signed before the rotation. Never used for new issuance.
	GraceWindow time.Duration
	// Persist stores key records in Redis so sibling processes verify
	// tokens signed elsewhere. When false keys are in-memory only and all
	// tokens die with the process.
	Persist bool
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig controls the Redis key-space.
type StoreConfig struct {
	RedisPrefix string
}

/*
====================================
RISK CONFIG
====================================
*/

// RiskConfig owns the escalation policy applied to risk factors. The
// scoring itself lives in the risk package and is not configurable.
type RiskConfig struct {
	// RevokeThreshold is the factor count at which validation force-revokes
	// the token. Factor counts below it are advisory warnings. Zero
	// disables escalation entirely.
	RevokeThreshold int
}

/*
====================================
ALERT CONFIG
====================================
*/

// AlertConfig controls the async security-alert dispatcher.
type AlertConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 30 * 24 * time.Hour,
			Issuer:     "goToken",
			Leeway:     30 * time.Second,
		},
		Keys: KeyConfig{
			GraceWindow: 24 * time.Hour,
			Persist:     true,
		},
		Store: StoreConfig{
			RedisPrefix: "gt",
		},
		Risk: RiskConfig{
			RevokeThreshold: 2,
		},
		Alert: AlertConfig{
			Enabled:    true,
			BufferSize: 64,
			DropIfFull: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.JWT.AccessTTL <= 0 {
		return errors.New("access TTL must be positive")
	}
	if cfg.JWT.RefreshTTL <= cfg.JWT.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	if cfg.JWT.Leeway < 0 || cfg.JWT.Leeway > 2*time.Minute {
		return errors.New("invalid leeway configuration")
	}
	if cfg.Keys.GraceWindow <= 0 {
		return errors.New("key grace window must be positive")
	}
	if cfg.Risk.RevokeThreshold < 0 {
		return errors.New("risk revoke threshold must not be negative")
	}
	if cfg.Alert.Enabled && cfg.Alert.BufferSize < 0 {
		return errors.New("alert buffer size must not be negative")
	}
	return nil
}
