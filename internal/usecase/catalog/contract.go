package catalog

import (
	"context"

	"github.com/fredesa/knowledge-registry/internal/domain/category"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/stats"
)

// SourceReader reads a single source by identifier.
type SourceReader interface {
	GetSource(ctx context.Context, id string) (source.Source, error)
}

// CategoryLister lists categories that hold at least one active source.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]category.Category, error)
}

// StatsReader aggregates the catalog.
type StatsReader interface {
	Stats(ctx context.Context) (stats.Catalog, error)
}

// Repository is the read side of the catalog store.
type Repository interface {
	SourceReader
	CategoryLister
	StatsReader
}
