// Package goToken is a JWT lifecycle manager for multi-tenant services:
// it issues, validates, refreshes, revokes, and re-keys access/refresh
// token pairs backed by a shared Redis revocation store.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build]. Validation and issuance hold no in-process mutable
// state; everything shared lives in Redis with TTL-bounded keys.
//
// # Architecture boundaries
//
// goToken is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (ValidationResult, TokenPair, SecurityAlert, etc.).
// Flow orchestration lives under internal/ and is never exported. The
// jwt, revocation, and risk sub-packages are importable for integrations
// that need the raw building blocks.
//
// # Failure model
//
// Every per-token rejection is a typed result, never a panic. Store
// failures are fail-closed (StatusStoreUnavailable), distinct from
// security rejections so callers can retry with backoff. The only hard
// operational failure is the inability to obtain a current signing key.
package goToken
