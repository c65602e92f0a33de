package mcp

import (
	"context"

	"github.com/fredesa/knowledge-registry/internal/domain/category"
	"github.com/fredesa/knowledge-registry/internal/domain/search/request"
	"github.com/fredesa/knowledge-registry/internal/domain/search/result"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/stats"
	gapuc "github.com/fredesa/knowledge-registry/internal/usecase/gap"
)

type mockSearch struct {
	result result.Result
	err    error
	last   request.Input
}

func (m *mockSearch) Query(_ context.Context, in request.Input) (result.Result, error) {
	m.last = in
	return m.result, m.err
}

type mockCatalog struct {
	sources    map[string]source.Source
	categories []category.Category
	stats      stats.Catalog
	err        error
}

func (m *mockCatalog) Source(_ context.Context, id string) (source.Source, error) {
	if m.err != nil {
		return source.Source{}, m.err
	}
	src, ok := m.sources[id]
	if !ok {
		return source.Source{}, errSourceNotFound
	}
	return src, nil
}

func (m *mockCatalog) Categories(context.Context) ([]category.Category, error) {
	return m.categories, m.err
}

func (m *mockCatalog) Stats(context.Context) (stats.Catalog, error) {
	return m.stats, m.err
}

type mockGaps struct {
	entries    []gapuc.Entry
	limit      int
	detection  gapuc.Detection
	detectErr  error
	lastQuery  string
	lastKws    []string
	resolveErr error
	resolved   string
}

func (m *mockGaps) Detect(_ context.Context, query string, keywords []string) (gapuc.Detection, error) {
	m.lastQuery, m.lastKws = query, keywords
	return m.detection, m.detectErr
}

func (m *mockGaps) Resolve(_ context.Context, key string) (gapuc.Resolution, error) {
	m.resolved = key
	if m.resolveErr != nil {
		return gapuc.Resolution{}, m.resolveErr
	}
	return gapuc.Resolution{Topic: key, EventsRemoved: 1}, nil
}

func (m *mockGaps) Recent(_ context.Context, limit int) ([]gapuc.Entry, error) {
	m.limit = limit
	return m.entries, nil
}
