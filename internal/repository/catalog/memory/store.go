// Package memory holds a catalog snapshot in process memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fredesa/knowledge-registry/internal/domain"
	"github.com/fredesa/knowledge-registry/internal/domain/category"
	"github.com/fredesa/knowledge-registry/internal/domain/search/filter"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/source/dimension"
	"github.com/fredesa/knowledge-registry/internal/domain/stats"
)

// Store is an in-memory catalog safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	sources    map[string]source.Source
	categories map[string]category.Category
}

// New creates an empty store.
func New() *Store {
	return &Store{
		sources:    map[string]source.Source{},
		categories: map[string]category.Category{},
	}
}

// FetchCandidates returns active sources matching p, best first.
func (s *Store) FetchCandidates(_ context.Context, p filter.Predicate) ([]source.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []source.Source{}
	for _, src := range s.sources {
		if src.Active() && p.Matches(src) {
			out = append(out, src)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Authority() != out[j].Authority() {
			return out[i].Authority() > out[j].Authority()
		}
		if out[i].Quality() != out[j].Quality() {
			return out[i].Quality() > out[j].Quality()
		}
		return out[i].Name() < out[j].Name()
	})
	return out, nil
}

// GetSource returns a source by id.
func (s *Store) GetSource(_ context.Context, id string) (source.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src, ok := s.sources[id]
	if !ok {
		return source.Source{}, domain.ErrNotFound
	}
	return src, nil
}

// ListCategories returns categories holding active sources, largest first.
func (s *Store) ListCategories(_ context.Context) ([]category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []category.Category{}
	for _, c := range s.categories {
		if c.Total() > 0 {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total() != out[j].Total() {
			return out[i].Total() > out[j].Total()
		}
		return out[i].Name() < out[j].Name()
	})
	return out, nil
}

// HasCategory reports whether label names a known category.
func (s *Store) HasCategory(_ context.Context, label string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.Matches(label) {
			return true, nil
		}
	}
	return false, nil
}

// Stats aggregates active sources.
func (s *Store) Stats(_ context.Context) (stats.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := stats.NewCatalog()
	for _, src := range s.sources {
		if !src.Active() {
			continue
		}
		st.TotalSources++
		st.ByAuthority[src.Authority()]++
		st.ByDimension[src.Dimension()]++
	}
	for _, c := range s.categories {
		if c.Total() > 0 {
			st.Categories++
		}
	}
	return st, nil
}

// UpsertCategories stores category metadata, keeping existing counts.
func (s *Store) UpsertCategories(_ context.Context, cats []category.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range cats {
		if prev, ok := s.categories[c.Name()]; ok {
			c = c.WithCounts(prev.Total(), countsOf(&prev))
		}
		s.categories[c.Name()] = c
	}
	return nil
}

// UpsertSources stores sources by id, filling in the category display name.
func (s *Store) UpsertSources(_ context.Context, sources []source.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, src := range sources {
		if src.CategoryDisplay() == "" {
			if c, ok := s.categories[src.CategoryName()]; ok {
				a := src.Attrs()
				a.CategoryDisplay = c.DisplayName()
				src = source.Reconstruct(a)
			}
		}
		s.sources[src.ID()] = src
	}
	return nil
}

// RefreshCategoryCounts recomputes per-dimension counts from active sources.
func (s *Store) RefreshCategoryCounts(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := map[string]int{}
	counts := map[string]map[dimension.Dimension]int{}
	for _, src := range s.sources {
		if !src.Active() {
			continue
		}
		name := src.CategoryName()
		totals[name]++
		if counts[name] == nil {
			counts[name] = map[dimension.Dimension]int{}
		}
		counts[name][src.Dimension()]++
	}
	for name, c := range s.categories {
		s.categories[name] = c.WithCounts(totals[name], counts[name])
	}
	return nil
}

func countsOf(c *category.Category) map[dimension.Dimension]int {
	m := make(map[dimension.Dimension]int, len(dimension.All()))
	for _, d := range dimension.All() {
		if n := c.Count(d); n > 0 {
			m[d] = n
		}
	}
	return m
}
