// Package jwt owns the signing side of the token lifecycle: the key ring
// with its rotation and grace-window rules, and the manager that signs and
// parses compact Ed25519 tokens with kid-addressed verification.
package jwt
