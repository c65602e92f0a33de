package request

import (
	"fmt"
	"strings"

	"github.com/fredesa/knowledge-registry/internal/domain"
	"github.com/fredesa/knowledge-registry/internal/domain/search/filter"
	"github.com/fredesa/knowledge-registry/internal/domain/source/dimension"
)

// Query parameter limits.
const (
	// MaxQueryLength is the maximum allowed query text length.
	MaxQueryLength = 4096
	DefaultLimit   = 10
	// MaxLimit is the hard result cap; a Policy can lower it but never raise it.
	MaxLimit     = 15
	MaxAuthority = 100
)

// Filter names reported in IgnoredFilters.
const (
	FilterDimension = "dimension"
	FilterCategory  = "category"
)

// Input is the raw query record as received from a caller.
type Input struct {
	Text         string
	Dimension    string
	Category     string
	MinAuthority int
	Limit        int
}

// Policy holds the defaults and validation mode applied to every query.
type Policy struct {
	DefaultMinAuthority int
	DefaultLimit        int
	MaxLimit            int
	// StrictFilters rejects unknown filter values instead of dropping them.
	StrictFilters bool
}

// DefaultPolicy returns the built-in defaults with strict filters.
func DefaultPolicy() Policy {
	return Policy{
		DefaultMinAuthority: filter.DefaultMinAuthority,
		DefaultLimit:        DefaultLimit,
		MaxLimit:            MaxLimit,
		StrictFilters:       true,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxLimit <= 0 || p.MaxLimit > MaxLimit {
		p.MaxLimit = MaxLimit
	}
	if p.DefaultLimit <= 0 {
		p.DefaultLimit = DefaultLimit
	}
	if p.DefaultLimit > p.MaxLimit {
		p.DefaultLimit = p.MaxLimit
	}
	if p.DefaultMinAuthority <= 0 {
		p.DefaultMinAuthority = filter.DefaultMinAuthority
	}
	return p
}

// Request is a validated, normalized query.
type Request struct {
	text         string
	dim          dimension.Dimension
	category     string
	minAuthority int
	limit        int
	strict       bool
	ignored      []string
}

// New validates in against p.
// Limit <= 0 takes the default and anything above the cap is clamped.
// MinAuthority 0 takes the default; values outside 0..100 are rejected.
// An unknown dimension fails with domain.ErrInvalidFilter under strict
// filters and is dropped otherwise.
func New(in Input, p Policy) (Request, error) {
	p = p.normalized()

	if len(in.Text) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	if in.MinAuthority < 0 || in.MinAuthority > MaxAuthority {
		return Request{}, fmt.Errorf("%w: min_authority must be between 0 and %d", domain.ErrInvalidQuery, MaxAuthority)
	}

	r := Request{
		text:         strings.TrimSpace(in.Text),
		category:     strings.TrimSpace(in.Category),
		minAuthority: in.MinAuthority,
		limit:        in.Limit,
		strict:       p.StrictFilters,
	}
	if r.minAuthority == 0 {
		r.minAuthority = p.DefaultMinAuthority
	}
	if r.limit <= 0 {
		r.limit = p.DefaultLimit
	}
	if r.limit > p.MaxLimit {
		r.limit = p.MaxLimit
	}

	if raw := strings.TrimSpace(in.Dimension); raw != "" {
		d, ok := dimension.Parse(raw)
		switch {
		case ok:
			r.dim = d
		case p.StrictFilters:
			return Request{}, domain.NewFilterError(FilterDimension, raw)
		default:
			r.ignored = append(r.ignored, FilterDimension)
		}
	}
	return r, nil
}

// Text returns the trimmed query text.
func (r *Request) Text() string { return r.text }

// Dimension returns the dimension filter, if any.
func (r *Request) Dimension() (dimension.Dimension, bool) { return r.dim, r.dim != "" }

// Category returns the category filter, if any.
func (r *Request) Category() (string, bool) { return r.category, r.category != "" }

// MinAuthority returns the authority floor.
func (r *Request) MinAuthority() int { return r.minAuthority }

// Limit returns the capped result limit.
func (r *Request) Limit() int { return r.limit }

// Strict reports whether unknown filters are rejected.
func (r *Request) Strict() bool { return r.strict }

// IgnoredFilters lists filters dropped as unknown.
func (r *Request) IgnoredFilters() []string { return r.ignored }

// WithoutCategory returns a copy with the category filter dropped and recorded as ignored.
func (r Request) WithoutCategory() Request {
	if r.category == "" {
		return r
	}
	r.category = ""
	r.ignored = append(append([]string(nil), r.ignored...), FilterCategory)
	return r
}
