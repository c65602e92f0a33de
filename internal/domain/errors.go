package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a malformed query parameter.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidFilter signals an unknown dimension or category filter.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable signals that the catalog store cannot be reached.
	ErrUnavailable = errors.New("catalog unavailable")
)

// FilterError wraps ErrInvalidFilter with the offending field and value.
type FilterError struct {
	Field string
	Value string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("%s: unknown %s %q", ErrInvalidFilter.Error(), e.Field, e.Value)
}

func (e *FilterError) Unwrap() error { return ErrInvalidFilter }

// NewFilterError creates an invalid filter error for field/value.
func NewFilterError(field, value string) error {
	return &FilterError{Field: field, Value: value}
}
