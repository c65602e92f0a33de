// Package catalog implements the catalog store on PostgreSQL.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/fredesa/knowledge-registry/internal/db/postgres"
	"github.com/fredesa/knowledge-registry/internal/domain"
	"github.com/fredesa/knowledge-registry/internal/domain/category"
	"github.com/fredesa/knowledge-registry/internal/domain/search/filter"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/source/dimension"
	"github.com/fredesa/knowledge-registry/internal/domain/stats"
)

// client is the consumer interface over the Postgres client (ISP).
type client interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, handler postgres.HandlerFunc, query string, args ...any) error
	Transaction(ctx context.Context, fn postgres.TxFunc) error
}

// Repo implements the search, catalog and ingest collaborator interfaces.
type Repo struct {
	client client
}

// New creates a catalog repository.
func New(c client) *Repo {
	return &Repo{client: c}
}

// FetchCandidates returns every active source satisfying p, best first.
func (r *Repo) FetchCandidates(ctx context.Context, p filter.Predicate) ([]source.Source, error) {
	where, args := compileWhere(p)
	query := selectSources + " WHERE " + where + " ORDER BY s.authority_score DESC, s.quality_score DESC, s.name"

	var out []source.Source
	err := r.client.Query(ctx, func(rows *sql.Rows) error {
		var err error
		out, err = scanSources(rows)
		return err
	}, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	return out, nil
}

// GetSource returns the source with the given id.
func (r *Repo) GetSource(ctx context.Context, id string) (source.Source, error) {
	var out []source.Source
	err := r.client.Query(ctx, func(rows *sql.Rows) error {
		var err error
		out, err = scanSources(rows)
		return err
	}, selectSources+" WHERE s.id = $1", id)
	if err != nil {
		return source.Source{}, fmt.Errorf("get source %s: %w", id, err)
	}
	if len(out) == 0 {
		return source.Source{}, domain.ErrNotFound
	}
	return out[0], nil
}

// ListCategories returns categories holding at least one source, largest first.
func (r *Repo) ListCategories(ctx context.Context) ([]category.Category, error) {
	cats := []category.Category{}
	err := r.client.Query(ctx, func(rows *sql.Rows) error {
		for rows.Next() {
			var (
				name, display, desc                          string
				total, theory, practice, history, cur, futur int
			)
			if err := rows.Scan(&name, &display, &desc, &total, &theory, &practice, &history, &cur, &futur); err != nil {
				return fmt.Errorf("scan category: %w", err)
			}
			cats = append(cats, category.Reconstruct(name, display, desc, total, map[dimension.Dimension]int{
				dimension.Theory:   theory,
				dimension.Practice: practice,
				dimension.History:  history,
				dimension.Current:  cur,
				dimension.Future:   futur,
			}))
		}
		return nil
	}, sqlListCategories)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// HasCategory reports whether label is a category key or display name.
func (r *Repo) HasCategory(ctx context.Context, label string) (bool, error) {
	var found bool
	err := r.client.Query(ctx, func(rows *sql.Rows) error {
		found = rows.Next()
		return nil
	}, sqlHasCategory, label)
	if err != nil {
		return false, fmt.Errorf("has category: %w", err)
	}
	return found, nil
}

// Stats aggregates active sources by authority tier and dimension.
func (r *Repo) Stats(ctx context.Context) (stats.Catalog, error) {
	st := stats.NewCatalog()
	err := r.client.Query(ctx, func(rows *sql.Rows) error {
		for rows.Next() {
			var (
				auth, n int
				dim     string
			)
			if err := rows.Scan(&auth, &dim, &n); err != nil {
				return fmt.Errorf("scan stats: %w", err)
			}
			st.TotalSources += n
			st.ByAuthority[auth] += n
			st.ByDimension[dimension.Dimension(dim)] += n
		}
		return nil
	}, sqlStatsBreakdown)
	if err != nil {
		return stats.Catalog{}, fmt.Errorf("stats: %w", err)
	}

	err = r.client.Query(ctx, func(rows *sql.Rows) error {
		if rows.Next() {
			return rows.Scan(&st.Categories)
		}
		return nil
	}, sqlCountCategories)
	if err != nil {
		return stats.Catalog{}, fmt.Errorf("count categories: %w", err)
	}
	return st, nil
}

// UpsertCategories inserts or updates category metadata in one transaction.
func (r *Repo) UpsertCategories(ctx context.Context, cats []category.Category) error {
	if len(cats) == 0 {
		return nil
	}
	return r.client.Transaction(ctx, func(tx *sql.Tx) error {
		for i := range cats {
			c := &cats[i]
			if _, err := tx.ExecContext(ctx, sqlUpsertCategory, c.Name(), c.DisplayName(), c.Description()); err != nil {
				return fmt.Errorf("upsert category %s: %w", c.Name(), err)
			}
		}
		return nil
	})
}

// UpsertSources inserts or updates sources in one transaction.
func (r *Repo) UpsertSources(ctx context.Context, sources []source.Source) error {
	if len(sources) == 0 {
		return nil
	}
	return r.client.Transaction(ctx, func(tx *sql.Tx) error {
		for i := range sources {
			s := &sources[i]
			_, err := tx.ExecContext(ctx, sqlUpsertSource,
				s.ID(), s.Name(), s.Description(), s.URL(), s.CategoryName(),
				string(s.Dimension()), s.Authority(), s.Quality(), s.WordCount(),
				s.SourceType(), s.Difficulty(), s.Active(),
			)
			if err != nil {
				return fmt.Errorf("upsert source %s: %w", s.ID(), err)
			}
		}
		return nil
	})
}

// RefreshCategoryCounts recomputes per-dimension counts from active sources.
func (r *Repo) RefreshCategoryCounts(ctx context.Context) error {
	if _, err := r.client.ExecContext(ctx, sqlRefreshCounts); err != nil {
		return fmt.Errorf("refresh category counts: %w", err)
	}
	return nil
}

// compileWhere translates a predicate into a WHERE clause with $n placeholders.
// The category alternative is parenthesized so it binds before the AND chain.
func compileWhere(p filter.Predicate) (string, []any) {
	conds := []string{"s.is_active = TRUE"}
	args := make([]any, 0, 3+len(p.Keywords()))
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	conds = append(conds, "s.authority_score >= "+next(p.MinAuthority()))
	if d, ok := p.Dimension(); ok {
		conds = append(conds, "s.dimension = "+next(string(d)))
	}
	if c, ok := p.Category(); ok {
		ph := next(c)
		conds = append(conds, "(c.name = "+ph+" OR c.display_name = "+ph+")")
	}
	if kws := p.Keywords(); len(kws) > 0 {
		ors := make([]string, 0, len(kws))
		for _, kw := range kws {
			ph := next("%" + escapeLike(kw) + "%")
			ors = append(ors, "LOWER(s.name) LIKE "+ph+" OR LOWER(s.description) LIKE "+ph+" OR LOWER(s.category_name) LIKE "+ph)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	return strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func scanSources(rows *sql.Rows) ([]source.Source, error) {
	out := []source.Source{}
	for rows.Next() {
		var (
			a   source.Attrs
			dim string
		)
		err := rows.Scan(
			&a.ID, &a.Name, &a.Description, &a.URL, &a.CategoryName, &a.CategoryDisplay,
			&dim, &a.Authority, &a.Quality, &a.WordCount, &a.SourceType, &a.Difficulty,
			&a.Active, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		a.Dimension = dimension.Dimension(dim)
		out = append(out, source.Reconstruct(a))
	}
	return out, nil
}
