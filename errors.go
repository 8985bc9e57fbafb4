package goToken

import "errors"

var (
	// ErrEngineNotReady is returned when a method is called on an engine
	// that was not built through [Builder.Build].
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrStoreUnavailable is returned when the revocation store cannot be
	// reached. Always fail-closed: callers may retry, never bypass.
	ErrStoreUnavailable = errors.New("revocation store unavailable")
	// ErrKeyStoreUnavailable is returned when no current signing key exists
	// and none can be provisioned. This is an operational incident, not a
	// per-request failure.
	ErrKeyStoreUnavailable = errors.New("signing key store unavailable")
	// ErrRefreshInvalid is returned when the token presented to Refresh
	// does not validate.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrNotARefreshToken is returned when a well-formed access token is
	// presented to Refresh.
	ErrNotARefreshToken = errors.New("not a refresh token")
)
