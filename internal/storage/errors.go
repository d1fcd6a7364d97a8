package storage

import "errors"

// Reference store errors. Callers match them with errors.Is.
var (
	// ErrNotFound means no reference hours exist for the requested date.
	ErrNotFound = errors.New("reference hours not found")

	// ErrDuplicateKey means a (date, HE) pair in the batch is already stored.
	// Loads are insert-only; reloading a date requires clearing it first.
	ErrDuplicateKey = errors.New("reference hour already loaded")

	// ErrInvalidInput means an hour has no date or an HE outside 1..24.
	ErrInvalidInput = errors.New("invalid reference hour")
)
