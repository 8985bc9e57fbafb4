package goToken

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	tokenjwt "github.com/MrEthical07/goToken/jwt"
)

type testEnv struct {
	engine *Engine
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	sink   *ChannelSink
}

func newTestEngine(t *testing.T, mutate func(*Config)) (*testEnv, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := defaultConfig()
	cfg.JWT.Issuer = "goToken-test"
	if mutate != nil {
		mutate(&cfg)
	}

	sink := NewChannelSink(16)
	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAlertSink(sink).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}

	env := &testEnv{engine: engine, mr: mr, rdb: rdb, sink: sink}
	return env, func() {
		engine.Close()
		rdb.Close()
		mr.Close()
	}
}

func issueTestPair(t *testing.T, e *Engine) *TokenPair {
	t.Helper()
	pair, err := e.IssuePair(context.Background(), IssueRequest{
		UserID:      "u1",
		Permissions: []string{"read"},
		Roles:       []string{"member"},
		DeviceInfo:  "X",
		IPAddress:   "1.1.1.1",
	})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	return pair
}

// signExpiredAccess produces a structurally valid access token whose exp
// already passed, bypassing issuance.
func signExpiredAccess(t *testing.T, e *Engine) string {
	t.Helper()
	past := time.Now().Add(-time.Hour)
	signed, err := e.tokens.Sign(context.Background(), &tokenjwt.Claims{
		TokenType: tokenjwt.TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ID:        "expired-jti",
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Minute)),
		},
	})
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	return signed
}

func waitForAlert(t *testing.T, sink *ChannelSink) SecurityAlert {
	t.Helper()
	select {
	case alert := <-sink.Alerts():
		return alert
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for security alert")
		return SecurityAlert{}
	}
}
