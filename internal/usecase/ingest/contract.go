package ingest

import (
	"context"

	"github.com/fredesa/knowledge-registry/internal/domain/category"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
)

// Writer persists a normalized catalog.
type Writer interface {
	UpsertCategories(ctx context.Context, cats []category.Category) error
	UpsertSources(ctx context.Context, sources []source.Source) error
	RefreshCategoryCounts(ctx context.Context) error
}

// CacheInvalidator retires derived data that a finished run makes stale.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}
