package storage

import "errors"

// Storage errors.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists. Run history is append-only.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfigPageMissing is returned when the configuration page does not exist. Fatal for a run.
	ErrConfigPageMissing = errors.New("configuration page missing")

	// ErrPageWriteFailed wraps a failed page write. Recoverable: other pages continue.
	ErrPageWriteFailed = errors.New("page write failed")

	// ErrStoreUnavailable is returned when the page store cannot be reached. Fatal for a run.
	ErrStoreUnavailable = errors.New("page store unavailable")

	// ErrWriteAccessDenied is returned when the page store refuses the bot's
	// credentials, or none are configured. Fatal for a run: no write can succeed.
	ErrWriteAccessDenied = errors.New("page store write access denied")
)
