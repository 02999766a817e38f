package entities

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the stores, the ledger and every caller surface.
// Callers classify with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrOutOfStock         = errors.New("out of stock")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrStorageFailure     = errors.New("storage failure")
	ErrInvalidID          = errors.New("invalid identifier")
)

// Refinements of ErrNotFound used by the ledger preconditions.
var (
	ErrBookNotFound         = fmt.Errorf("book %w", ErrNotFound)
	ErrReaderNotFound       = fmt.Errorf("reader %w", ErrNotFound)
	ErrLoanNotFoundOrClosed = fmt.Errorf("loan %w or already closed", ErrNotFound)
)

// IsDomainError reports whether err belongs to the taxonomy and was not
// caused by the storage layer.
func IsDomainError(err error) bool {
	if err == nil || errors.Is(err, ErrStorageFailure) {
		return false
	}
	for _, target := range []error{
		ErrNotFound,
		ErrDuplicateKey,
		ErrInvalidDateRange,
		ErrOutOfStock,
		ErrInvariantViolation,
		ErrInvalidID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
