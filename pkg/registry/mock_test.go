package registry

import (
	"context"

	"github.com/fredesa/knowledge-registry/internal/domain/category"
	"github.com/fredesa/knowledge-registry/internal/domain/search/request"
	"github.com/fredesa/knowledge-registry/internal/domain/search/result"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/stats"
	healthuc "github.com/fredesa/knowledge-registry/internal/usecase/health"
)

type mockSearchUC struct {
	queryFn func(ctx context.Context, in request.Input) (result.Result, error)
}

func (m *mockSearchUC) Query(ctx context.Context, in request.Input) (result.Result, error) {
	return m.queryFn(ctx, in)
}

type mockCatalogUC struct {
	sourceFn     func(ctx context.Context, id string) (source.Source, error)
	categoriesFn func(ctx context.Context) ([]category.Category, error)
	statsFn      func(ctx context.Context) (stats.Catalog, error)
}

func (m *mockCatalogUC) Source(ctx context.Context, id string) (source.Source, error) {
	return m.sourceFn(ctx, id)
}

func (m *mockCatalogUC) Categories(ctx context.Context) ([]category.Category, error) {
	return m.categoriesFn(ctx)
}

func (m *mockCatalogUC) Stats(ctx context.Context) (stats.Catalog, error) {
	return m.statsFn(ctx)
}

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }
