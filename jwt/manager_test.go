package jwt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestManager(t *testing.T) (*Manager, *Keyring) {
	t.Helper()
	ring := newTestKeyring(t, time.Hour)
	m, err := NewManager(Config{Issuer: "goToken-test", Audience: "api"}, ring)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m, ring
}

func testClaims(ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		Scope:             []string{"read"},
		Roles:             []string{"member"},
		DeviceFingerprint: "fp-1",
		IPAddress:         "1.1.1.1",
		TokenType:         TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ID:        "jti-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func TestSignParseRoundTrip(t *testing.T) {
	m, ring := newTestManager(t)
	ctx := context.Background()

	signed, err := m.Sign(ctx, testClaims(time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if strings.Count(signed, ".") != 2 {
		t.Fatalf("expected compact three-part token, got %q", signed)
	}

	claims, err := m.Parse(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID() != "u1" || claims.ID != "jti-1" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.TokenType != TypeAccess {
		t.Fatalf("token type %q, want access", claims.TokenType)
	}
	if claims.Issuer != "goToken-test" {
		t.Fatalf("issuer %q not filled from config", claims.Issuer)
	}
	if ring.CurrentKID() == "" {
		t.Fatal("signing should have provisioned a key")
	}
}

func TestParseClassifiesMalformed(t *testing.T) {
	m, _ := newTestManager(t)
	for _, token := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := m.Parse(token); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Parse(%q): expected ErrMalformed, got %v", token, err)
		}
	}
}

func TestParseClassifiesExpiredAndKeepsClaims(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	signed, err := m.Sign(ctx, testClaims(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = m.Parse(signed)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	claims := ExpiredClaims(err)
	if claims == nil || claims.ID != "jti-1" {
		t.Fatalf("expected decoded claims on expired error, got %+v", claims)
	}
}

func TestParseClassifiesSignatureInvalid(t *testing.T) {
	m, _ := newTestManager(t)
	other, _ := newTestManager(t)
	ctx := context.Background()

	// Same kid namespace, different key material: graft a foreign signature
	// onto a locally-signed token body.
	local, err := m.Sign(ctx, testClaims(time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	foreign, err := other.Sign(ctx, testClaims(time.Minute))
	if err != nil {
		t.Fatalf("sign foreign: %v", err)
	}
	localParts := strings.Split(local, ".")
	foreignParts := strings.Split(foreign, ".")
	tampered := localParts[0] + "." + localParts[1] + "." + foreignParts[2]

	if _, err := m.Parse(tampered); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestParseRejectsUnknownKID(t *testing.T) {
	m, _ := newTestManager(t)
	other, _ := newTestManager(t)
	ctx := context.Background()

	foreign, err := other.Sign(ctx, testClaims(time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Parse(foreign); !errors.Is(err, ErrUnknownKeyID) {
		t.Fatalf("expected ErrUnknownKeyID, got %v", err)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	ring := newTestKeyring(t, time.Hour)
	signer, err := NewManager(Config{Issuer: "someone-else"}, ring)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	verifier, err := NewManager(Config{Issuer: "goToken-test"}, ring)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	signed, err := signer.Sign(context.Background(), testClaims(time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := verifier.Parse(signed); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for issuer mismatch, got %v", err)
	}
}

func TestSignAfterRotationOldTokenStillVerifies(t *testing.T) {
	m, ring := newTestManager(t)
	ctx := context.Background()

	before, err := m.Sign(ctx, testClaims(time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ring.Rotate(ctx); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, err := m.Parse(before); err != nil {
		t.Fatalf("token signed before rotation must validate inside grace window: %v", err)
	}

	after, err := m.Sign(ctx, testClaims(time.Minute))
	if err != nil {
		t.Fatalf("sign after rotation: %v", err)
	}
	if _, err := m.Parse(after); err != nil {
		t.Fatalf("token signed after rotation must validate: %v", err)
	}
}
