package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned for tokens that fail structural or claim-level
// validation (bad compact form, wrong issuer/audience, future iat).
var ErrMalformed = errors.New("malformed token")

// ErrSignatureInvalid is returned when the signature does not verify under
// the key the kid resolves to.
var ErrSignatureInvalid = errors.New("token signature invalid")

// ErrExpired is returned for structurally valid tokens whose exp has
// passed. The parsed claims are still returned alongside this error so
// callers can run best-effort cleanup keyed by jti.
var ErrExpired = errors.New("token expired")

// TokenType tags a token as one half of an issued pair.
type TokenType string

const (
	// TypeAccess is the short-lived half of a token pair.
	TypeAccess TokenType = "access"
	// TypeRefresh is the long-lived half of a token pair.
	TypeRefresh TokenType = "refresh"
)

// Claims is the signed payload embedded in every token. Instances are
// immutable once signed.
type Claims struct {
	Scope             []string  `json:"scope,omitempty"`
	Roles             []string  `json:"roles,omitempty"`
	DeviceFingerprint string    `json:"device_fingerprint,omitempty"`
	IPAddress         string    `json:"ip_address,omitempty"`
	TokenType         TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID returns the subject the token was issued to.
func (c *Claims) UserID() string {
	return c.Subject
}

// Config carries the registered-claim policy shared by every signed token.
type Config struct {
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// Manager signs and parses compact EdDSA tokens against a Keyring. Safe
// for concurrent use after construction.
type Manager struct {
	config  Config
	keyring *Keyring
}

// NewManager validates the config and binds the manager to its key ring.
func NewManager(cfg Config, keyring *Keyring) (*Manager, error) {
	if keyring == nil {
		return nil, errors.New("manager requires a keyring")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Manager{config: cfg, keyring: keyring}, nil
}

// Sign produces the compact signed form of claims with the current key,
// embedding its kid in the header. Issuer and audience are filled from the
// manager config when unset.
func (m *Manager) Sign(ctx context.Context, claims *Claims) (string, error) {
	if claims.Issuer == "" {
		claims.Issuer = m.config.Issuer
	}
	if len(claims.Audience) == 0 && m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	priv, kid, err := m.keyring.SigningKey(ctx)
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = kid
	return token.SignedString(priv)
}

// Parse verifies a compact token and classifies every failure into one of
// the package sentinels: ErrMissingKeyID, ErrUnknownKeyID, ErrMalformed,
// ErrSignatureInvalid, or ErrExpired. For ErrExpired the decoded claims
// are returned with the error.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuedAt(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrMissingKeyID
		}
		return m.keyring.VerificationKey(kid)
	})
	if err != nil {
		return nil, m.classify(token, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}

func (m *Manager) classify(token *jwt.Token, err error) error {
	switch {
	case errors.Is(err, ErrMissingKeyID):
		return ErrMissingKeyID
	case errors.Is(err, ErrUnknownKeyID):
		return ErrUnknownKeyID
	case errors.Is(err, jwt.ErrTokenExpired):
		var claims *Claims
		if token != nil {
			claims, _ = token.Claims.(*Claims)
		}
		return &expiredError{claims: claims, cause: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	default:
		// Structural failures and claim policy failures (iss, aud, iat)
		// collapse into the same rejection kind.
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

type expiredError struct {
	claims *Claims
	cause  error
}

func (e *expiredError) Error() string {
	return fmt.Sprintf("%s: %v", ErrExpired.Error(), e.cause)
}

func (e *expiredError) Is(target error) bool {
	return target == ErrExpired
}

func (e *expiredError) Unwrap() error {
	return e.cause
}

// ExpiredClaims extracts the decoded claims from an ErrExpired error, or
// nil when the error carries none.
func ExpiredClaims(err error) *Claims {
	var exp *expiredError
	if errors.As(err, &exp) {
		return exp.claims
	}
	return nil
}
