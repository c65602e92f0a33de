package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fredesa/knowledge-registry/internal/domain"
	"github.com/fredesa/knowledge-registry/internal/domain/category"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/stats"
)

// Service exposes source details, category listings and catalog statistics.
type Service struct {
	repo Repository
}

// New creates a catalog service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Source returns the source with the given UUID.
func (s *Service) Source(ctx context.Context, id string) (source.Source, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return source.Source{}, fmt.Errorf("%w: source_id is required", domain.ErrInvalidQuery)
	}
	if _, err := uuid.Parse(id); err != nil {
		return source.Source{}, fmt.Errorf("%w: source_id must be a UUID", domain.ErrInvalidQuery)
	}
	src, err := s.repo.GetSource(ctx, id)
	if err != nil {
		return source.Source{}, fmt.Errorf("get source %s: %w", id, err)
	}
	return src, nil
}

// Categories returns non-empty categories, largest first.
func (s *Service) Categories(ctx context.Context) ([]category.Category, error) {
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Stats returns catalog totals by authority tier and dimension.
func (s *Service) Stats(ctx context.Context) (stats.Catalog, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return stats.Catalog{}, fmt.Errorf("catalog stats: %w", err)
	}
	return st, nil
}
