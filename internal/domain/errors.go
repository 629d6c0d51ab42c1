package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals malformed user-supplied search parameters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrRepositoryUnavailable signals a data-layer failure or timeout.
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)

// InvalidQueryError wraps ErrInvalidQuery with the rejected parameter,
// so callers can tell the user exactly which input was refused.
type InvalidQueryError struct {
	Param  string
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("%s: parameter %q: %s", ErrInvalidQuery.Error(), e.Param, e.Reason)
}

func (e *InvalidQueryError) Unwrap() error { return ErrInvalidQuery }

// NewInvalidQuery creates an invalid-query error for a named parameter.
func NewInvalidQuery(param, format string, args ...any) error {
	return &InvalidQueryError{Param: param, Reason: fmt.Sprintf(format, args...)}
}
