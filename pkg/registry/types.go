package registry

import (
	"time"

	"github.com/fredesa/knowledge-registry/internal/domain/category"
	"github.com/fredesa/knowledge-registry/internal/domain/search/request"
	"github.com/fredesa/knowledge-registry/internal/domain/search/result"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/source/authority"
	"github.com/fredesa/knowledge-registry/internal/domain/source/dimension"
	"github.com/fredesa/knowledge-registry/internal/domain/stats"
)

// Query is a knowledge query. Zero MinAuthority and Limit select the defaults (50 and 10).
type Query struct {
	Text         string
	Dimension    string
	Category     string
	MinAuthority int
	Limit        int
}

func (q Query) toInput() request.Input {
	return request.Input{
		Text:         q.Text,
		Dimension:    q.Dimension,
		Category:     q.Category,
		MinAuthority: q.MinAuthority,
		Limit:        q.Limit,
	}
}

// Source is a catalog entry.
type Source struct {
	ID             string
	Name           string
	Description    string
	URL            string
	Category       string // display label
	CategoryName   string
	Dimension      string
	AuthorityScore int
	AuthorityLabel string
	QualityScore   float64
	WordCount      int
	SourceType     string
	Difficulty     string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Filters are the filters a query was evaluated with. Empty strings mean unset.
type Filters struct {
	Dimension    string
	Category     string
	MinAuthority int
}

// QueryInfo describes how a query was interpreted.
type QueryInfo struct {
	OriginalQuery  string
	Keywords       []string
	Filters        Filters
	IgnoredFilters []string
}

// Result is the ranked answer to a query.
type Result struct {
	Sources []Source
	Info    QueryInfo
	Summary string
}

// Category is a knowledge category with per-dimension counts.
type Category struct {
	Name         string
	DisplayName  string
	Description  string
	TotalSources int
	ByDimension  map[string]int
}

// Stats aggregates the active catalog.
type Stats struct {
	TotalSources int
	ByAuthority  map[int]int
	ByDimension  map[string]int
	Categories   int
}

func fromSource(s *source.Source) Source {
	return Source{
		ID:             s.ID(),
		Name:           s.Name(),
		Description:    s.Description(),
		URL:            s.URL(),
		Category:       s.CategoryLabel(),
		CategoryName:   s.CategoryName(),
		Dimension:      string(s.Dimension()),
		AuthorityScore: s.Authority(),
		AuthorityLabel: authority.Label(s.Authority()),
		QualityScore:   s.Quality(),
		WordCount:      s.WordCount(),
		SourceType:     s.SourceType(),
		Difficulty:     s.Difficulty(),
		Active:         s.Active(),
		CreatedAt:      s.CreatedAt(),
		UpdatedAt:      s.UpdatedAt(),
	}
}

func fromResult(r *result.Result) Result {
	srcs := r.Sources()
	info := r.Info()
	out := Result{
		Sources: make([]Source, len(srcs)),
		Info: QueryInfo{
			OriginalQuery:  info.OriginalQuery,
			Keywords:       info.Keywords,
			Filters:        Filters(info.Filters),
			IgnoredFilters: info.IgnoredFilters,
		},
		Summary: r.Summary(),
	}
	for i := range srcs {
		out.Sources[i] = fromSource(&srcs[i])
	}
	return out
}

func fromCategory(c *category.Category) Category {
	byDim := make(map[string]int, len(dimension.All()))
	for _, d := range dimension.All() {
		byDim[string(d)] = c.Count(d)
	}
	return Category{
		Name:         c.Name(),
		DisplayName:  c.DisplayName(),
		Description:  c.Description(),
		TotalSources: c.Total(),
		ByDimension:  byDim,
	}
}

func fromStats(st stats.Catalog) Stats {
	out := Stats{
		TotalSources: st.TotalSources,
		ByAuthority:  make(map[int]int, len(st.ByAuthority)),
		ByDimension:  make(map[string]int, len(st.ByDimension)),
		Categories:   st.Categories,
	}
	for a, n := range st.ByAuthority {
		out.ByAuthority[a] = n
	}
	for d, n := range st.ByDimension {
		out.ByDimension[string(d)] = n
	}
	return out
}
