package chi

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/fredesa/knowledge-registry/internal/domain/category"
	"github.com/fredesa/knowledge-registry/internal/domain/search/request"
	"github.com/fredesa/knowledge-registry/internal/domain/search/result"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/stats"
	gapuc "github.com/fredesa/knowledge-registry/internal/usecase/gap"
	healthuc "github.com/fredesa/knowledge-registry/internal/usecase/health"
)

type mockSearcher struct {
	queryFn func(ctx context.Context, in request.Input) (result.Result, error)
	last    request.Input
}

func (m *mockSearcher) Query(ctx context.Context, in request.Input) (result.Result, error) {
	m.last = in
	if m.queryFn != nil {
		return m.queryFn(ctx, in)
	}
	return result.New(nil, result.Info{OriginalQuery: in.Text}, ""), nil
}

type mockCatalog struct {
	sourceFn     func(ctx context.Context, id string) (source.Source, error)
	categoriesFn func(ctx context.Context) ([]category.Category, error)
	statsFn      func(ctx context.Context) (stats.Catalog, error)
}

func (m *mockCatalog) Source(ctx context.Context, id string) (source.Source, error) {
	return m.sourceFn(ctx, id)
}

func (m *mockCatalog) Categories(ctx context.Context) ([]category.Category, error) {
	return m.categoriesFn(ctx)
}

func (m *mockCatalog) Stats(ctx context.Context) (stats.Catalog, error) {
	return m.statsFn(ctx)
}

type mockGaps struct {
	recentFn  func(ctx context.Context, limit int) ([]gapuc.Entry, error)
	detectFn  func(ctx context.Context, query string, keywords []string) (gapuc.Detection, error)
	resolveFn func(ctx context.Context, key string) (gapuc.Resolution, error)
}

func (m *mockGaps) Recent(ctx context.Context, limit int) ([]gapuc.Entry, error) {
	return m.recentFn(ctx, limit)
}

func (m *mockGaps) Detect(ctx context.Context, query string, keywords []string) (gapuc.Detection, error) {
	return m.detectFn(ctx, query, keywords)
}

func (m *mockGaps) Resolve(ctx context.Context, key string) (gapuc.Resolution, error) {
	return m.resolveFn(ctx, key)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type fixture struct {
	search  *mockSearcher
	catalog *mockCatalog
	gaps    *mockGaps
	health  *mockHealth
	server  *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		search:  &mockSearcher{},
		catalog: &mockCatalog{},
		gaps:    &mockGaps{},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{healthuc.ComponentDatabase: healthuc.CheckOK},
		}},
	}
	f.server = NewServer(f.search, f.catalog, f.gaps, f.health, zap.NewNop())
	return f
}
