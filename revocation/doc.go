// Package revocation is the shared mutable state of the token lifecycle:
// a Redis-backed blacklist of revoked jtis, per-jti metadata records, and
// a per-user index of active tokens.
//
// Everything TTL-bounded lives here. A blacklist entry's TTL is never
// shorter than the remaining lifetime of the token it covers, so a revoked
// token can never outlive its own blacklist entry. Revocation is atomic
// and idempotent: the blacklist write and the metadata active flip happen
// inside a single Lua script, and a second revoke of the same jti is a
// no-op.
package revocation
