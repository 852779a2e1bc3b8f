package store

import "errors"

var (
	// ErrDuplicate is returned when teaching a tuple (or catalog item) that already exists
	ErrDuplicate = errors.New("already exists")

	// ErrNotFound is returned when a row to read or delete does not exist
	ErrNotFound = errors.New("not found")

	// ErrDataIntegrity is returned when more than one row shares a supposedly unique id
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrStoreUnavailable wraps any failure of the underlying database
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrRecursionLimit is returned when alias resolution exceeds its depth bound
	ErrRecursionLimit = errors.New("alias recursion limit exceeded")
)
