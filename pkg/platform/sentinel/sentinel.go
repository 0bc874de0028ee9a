package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: unique constraint or duplicate membership
// - ErrStaleNonce: compare-and-swap lost; the expected counter value moved
// - ErrInsufficient: balance smaller than the requested deduction
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrStaleNonce   = errors.New("stale nonce")
	ErrInsufficient = errors.New("insufficient balance")
	ErrUnavailable  = errors.New("unavailable")
)
