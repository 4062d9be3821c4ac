package domain

import "errors"

var (
	// ErrInvalidInput marks a request that failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a lookup that matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a request the current state does not allow.
	ErrConflict = errors.New("conflict")
)
