// Package flows contains the orchestration logic for issuance, validation,
// and refresh, decoupled from the root package through dependency structs.
// Each flow returns a classified failure kind plus payload; mapping those
// kinds to public results, metrics, and alerts happens at the root.
package flows
