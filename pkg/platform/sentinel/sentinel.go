package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the bank return these
// (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about ledger records, not validation failures:
// - ErrNotFound: record absent at its derived storage key
// - ErrAlreadyUsed: derived storage key already occupied (duplicate creation)
// - ErrConflict: compare-and-increment observed a stale counter value
// - ErrExpired: deadline has passed
// - ErrInsufficientFunds: debit would overdraw the paying account
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyUsed       = errors.New("already used")
	ErrConflict          = errors.New("conflict")
	ErrExpired           = errors.New("expired")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
