package search

import (
	"context"

	"github.com/fredesa/knowledge-registry/internal/domain/gap"
	"github.com/fredesa/knowledge-registry/internal/domain/search/filter"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
)

// Catalog returns every active source satisfying a predicate.
type Catalog interface {
	FetchCandidates(ctx context.Context, p filter.Predicate) ([]source.Source, error)
}

// CategoryResolver checks category labels (key or display name) against the catalog.
type CategoryResolver interface {
	HasCategory(ctx context.Context, label string) (bool, error)
}

// GapRecorder stores under-covered queries.
type GapRecorder interface {
	Record(ctx context.Context, g gap.Gap) error
}
