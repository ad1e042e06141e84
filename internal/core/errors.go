package core

import "errors"

// Error kinds shared across the service and HTTP layers. Services wrap these
// with fmt.Errorf("...: %w", ...) so callers can classify with errors.Is.
var (
	// ErrNotFound marks a referenced entity that does not exist or is
	// soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a duplicate name+type or an overlapping same-name
	// budget period.
	ErrConflict = errors.New("conflict")

	// ErrInvalidReference marks a transaction referencing a category,
	// sub-category, budget or payment method that does not exist or does not
	// belong to its claimed parent.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrPreconditionFailed marks a delete blocked by dependent non-deleted
	// records.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrDataFetch marks a repository failure. Computations surface it as a
	// single terminal error, never a partial result.
	ErrDataFetch = errors.New("data fetch failed")
)

// Validation sentinels.
var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidPeriod      = errors.New("end date must not be before start date")
	ErrEmptyName          = errors.New("name must not be empty")
	ErrNameTooLong        = errors.New("name too long")
	ErrDescriptionTooLong = errors.New("description too long")
	ErrInvalidMonth       = errors.New("month must be between 1 and 12")
	ErrInvalidDay         = errors.New("invalid day of month")
)
