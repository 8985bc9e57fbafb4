package goToken

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.JWT.AccessTTL != 15*time.Minute {
		t.Fatalf("access TTL %v", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.RefreshTTL != 30*24*time.Hour {
		t.Fatalf("refresh TTL %v", cfg.JWT.RefreshTTL)
	}
	if cfg.Keys.GraceWindow != 24*time.Hour || !cfg.Keys.Persist {
		t.Fatalf("key config %+v", cfg.Keys)
	}
	if cfg.Risk.RevokeThreshold != 2 {
		t.Fatalf("revoke threshold %d", cfg.Risk.RevokeThreshold)
	}
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero access ttl",
			mutate:  func(c *Config) { c.JWT.AccessTTL = 0 },
			wantErr: "access TTL",
		},
		{
			name:    "refresh not longer than access",
			mutate:  func(c *Config) { c.JWT.RefreshTTL = c.JWT.AccessTTL },
			wantErr: "refresh TTL",
		},
		{
			name:    "negative leeway",
			mutate:  func(c *Config) { c.JWT.Leeway = -time.Second },
			wantErr: "leeway",
		},
		{
			name:    "excessive leeway",
			mutate:  func(c *Config) { c.JWT.Leeway = 10 * time.Minute },
			wantErr: "leeway",
		},
		{
			name:    "zero grace window",
			mutate:  func(c *Config) { c.Keys.GraceWindow = 0 },
			wantErr: "grace window",
		},
		{
			name:    "negative revoke threshold",
			mutate:  func(c *Config) { c.Risk.RevokeThreshold = -1 },
			wantErr: "threshold",
		},
		{
			name:    "negative alert buffer",
			mutate:  func(c *Config) { c.Alert.BufferSize = -1 },
			wantErr: "buffer",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			err := validateConfig(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestBuilderRequiresRedis(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("expected error without a redis client")
	}
}

func TestBuilderBuildsOnce(t *testing.T) {
	env, done := newTestEngine(t, nil)
	defer done()

	b := New().WithRedis(env.rdb)
	first, err := b.Build()
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	defer first.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error on second build")
	}
}
