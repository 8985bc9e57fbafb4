// Package internal holds helpers shared by the engine and its flows that
// must not be part of the public API surface: token identifier generation
// and device fingerprint derivation.
//
// Nothing in this package performs I/O. Everything here is safe for
// concurrent use.
package internal
