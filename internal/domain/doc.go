// Package domain holds the value types and error taxonomy of the hazard-aware
// routing engine.
//
// # Coordinates
//
// All coordinates are WGS-84 decimal degrees. Types expose an orb.Point in
// [lon, lat] order for use with github.com/paulmach/orb geometry and indexes.
// Distances reported to callers are great-circle kilometres; hazard influence
// radii are metres.
//
// # Hazards
//
// A hazard record carries a severity on a 1–10 scale:
//
//	1  = minor delay
//	10 = complete blockage
//
// Values outside the scale are clamped before use, never rejected.
//
// # Identifiers
//
// Node and facility identifiers are strings. Identifiers that parse as
// integers compare numerically ("9" < "10"); anything else compares
// lexically. Tie-breaking in nearest-facility search relies on this order.
//
// # Errors
//
// Every failure below the dispatcher wraps one of the sentinel errors in
// errors.go. Classify maps an error chain to the code emitted in the result
// document:
//
//	ErrLoad              → load_error
//	ErrNodeNotFound      → node_not_found
//	ErrUnreachable       → unreachable
//	ErrEmptyCandidateSet → empty_candidate_set
//	ErrMalformedInput    → malformed_input
//	anything else        → internal_error
package domain
