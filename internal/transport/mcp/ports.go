// Package mcp exposes the registry as Model Context Protocol tools and resources.
package mcp

import (
	"context"
	"errors"

	"github.com/fredesa/knowledge-registry/internal/domain/category"
	"github.com/fredesa/knowledge-registry/internal/domain/search/request"
	"github.com/fredesa/knowledge-registry/internal/domain/search/result"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/stats"
	gapuc "github.com/fredesa/knowledge-registry/internal/usecase/gap"
)

var (
	// ErrMissingSearch is returned when the search port is not provided.
	ErrMissingSearch = errors.New("mcp: search service is required")
	// ErrMissingCatalog is returned when the catalog port is not provided.
	ErrMissingCatalog = errors.New("mcp: catalog service is required")
)

// Searcher answers knowledge queries.
type Searcher interface {
	Query(ctx context.Context, in request.Input) (result.Result, error)
}

// CatalogReader serves catalog lookups.
type CatalogReader interface {
	Source(ctx context.Context, id string) (source.Source, error)
	Categories(ctx context.Context) ([]category.Category, error)
	Stats(ctx context.Context) (stats.Catalog, error)
}

// GapManager lists, detects and resolves knowledge gaps.
type GapManager interface {
	Recent(ctx context.Context, limit int) ([]gapuc.Entry, error)
	Detect(ctx context.Context, query string, keywords []string) (gapuc.Detection, error)
	Resolve(ctx context.Context, key string) (gapuc.Resolution, error)
}

// Ports aggregates the services the MCP server calls.
type Ports struct {
	Search  Searcher
	Catalog CatalogReader
	// Gaps is optional; the gap tools are registered only when set.
	Gaps GapManager
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearch
	}
	if p.Catalog == nil {
		return ErrMissingCatalog
	}
	return nil
}
