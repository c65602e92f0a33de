package registry

import "github.com/fredesa/knowledge-registry/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound      = domain.ErrNotFound
	ErrInvalidQuery  = domain.ErrInvalidQuery
	ErrInvalidFilter = domain.ErrInvalidFilter
	ErrUnavailable   = domain.ErrUnavailable
)

// FilterError carries the offending filter of an ErrInvalidFilter.
type FilterError = domain.FilterError
