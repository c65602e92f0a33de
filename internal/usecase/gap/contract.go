package gap

import (
	"context"

	"github.com/fredesa/knowledge-registry/internal/domain/gap"
	"github.com/fredesa/knowledge-registry/internal/domain/search/filter"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
)

// Store persists the knowledge gap log and per-topic counters.
type Store interface {
	Record(ctx context.Context, g gap.Gap) error
	Recent(ctx context.Context, limit int) ([]gap.Gap, error)
	Occurrences(ctx context.Context, key string) (int64, error)
	Resolve(ctx context.Context, key string) (removed int, counted bool, err error)
}

// Catalog returns every active source satisfying a predicate.
type Catalog interface {
	FetchCandidates(ctx context.Context, p filter.Predicate) ([]source.Source, error)
}
