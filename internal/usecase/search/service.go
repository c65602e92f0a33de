package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fredesa/knowledge-registry/internal/domain"
	"github.com/fredesa/knowledge-registry/internal/domain/gap"
	"github.com/fredesa/knowledge-registry/internal/domain/search/filter"
	"github.com/fredesa/knowledge-registry/internal/domain/search/keyword"
	"github.com/fredesa/knowledge-registry/internal/domain/search/rank"
	"github.com/fredesa/knowledge-registry/internal/domain/search/request"
	"github.com/fredesa/knowledge-registry/internal/domain/search/result"
	"github.com/fredesa/knowledge-registry/internal/domain/search/summary"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/metrics"
)

// Config holds the query policy and gap threshold.
type Config struct {
	Policy request.Policy
	// MinCoverage is the result count below which a query is recorded as a gap. 0 disables.
	MinCoverage int
}

// DefaultConfig returns strict filters, limit 10 (cap 15), authority 50+ and gap threshold 2.
func DefaultConfig() Config {
	return Config{Policy: request.DefaultPolicy(), MinCoverage: gap.DefaultMinCoverage}
}

// Service answers knowledge queries: keywords, predicate, catalog fetch, rank, summary.
type Service struct {
	catalog    Catalog
	categories CategoryResolver
	gaps       GapRecorder
	cfg        Config
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a search service. categories and gaps can be nil.
func New(catalog Catalog, categories CategoryResolver, gaps GapRecorder, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:    catalog,
		categories: categories,
		gaps:       gaps,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Query validates in, evaluates it against the catalog and returns the ranked result.
// Zero matches is not an error. Catalog failures wrap domain.ErrUnavailable.
func (s *Service) Query(ctx context.Context, in request.Input) (result.Result, error) {
	req, err := request.New(in, s.cfg.Policy)
	if err != nil {
		metrics.SearchQueriesTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return result.Result{}, err
	}

	req, err = s.resolveCategory(ctx, req)
	if err != nil {
		metrics.SearchQueriesTotal.WithLabelValues(outcomeOf(err)).Inc()
		return result.Result{}, err
	}

	keywords := keyword.Extract(req.Text())
	dim, _ := req.Dimension()
	cat, _ := req.Category()
	pred := filter.Build(keywords, dim, cat, req.MinAuthority())

	candidates, err := s.catalog.FetchCandidates(ctx, pred)
	if err != nil {
		metrics.SearchQueriesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return result.Result{}, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}

	res := Evaluate(&req, keywords, candidates)

	metrics.SearchResults.Observe(float64(res.Count()))
	if res.Count() == 0 {
		metrics.SearchQueriesTotal.WithLabelValues(metrics.OutcomeEmpty).Inc()
	} else {
		metrics.SearchQueriesTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	}

	s.logger.Debug("Knowledge query answered",
		zap.Strings("keywords", keywords),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", res.Count()),
		zap.Int("min_authority", req.MinAuthority()),
	)

	// Coverage is judged on every match, not the page the limit keeps.
	s.recordGap(ctx, &req, keywords, len(candidates))
	return res, nil
}

// Evaluate ranks candidates for req and writes the summary. It performs no I/O.
func Evaluate(req *request.Request, keywords []string, candidates []source.Source) result.Result {
	ranked := rank.Rank(candidates, req.Limit())

	dim, _ := req.Dimension()
	cat, _ := req.Category()
	text := summary.Format(summary.Input{
		Query:        req.Text(),
		Sources:      ranked,
		Dimension:    string(dim),
		Category:     cat,
		MinAuthority: req.MinAuthority(),
	})

	info := result.Info{
		OriginalQuery: req.Text(),
		Keywords:      keywords,
		Filters: result.Filters{
			Dimension:    string(dim),
			Category:     cat,
			MinAuthority: req.MinAuthority(),
		},
		IgnoredFilters: req.IgnoredFilters(),
	}
	return result.New(ranked, info, text)
}

func (s *Service) resolveCategory(ctx context.Context, req request.Request) (request.Request, error) {
	cat, ok := req.Category()
	if !ok || s.categories == nil {
		return req, nil
	}
	known, err := s.categories.HasCategory(ctx, cat)
	if err != nil {
		return req, fmt.Errorf("%w: resolve category: %w", domain.ErrUnavailable, err)
	}
	switch {
	case known:
		return req, nil
	case req.Strict():
		return req, domain.NewFilterError(request.FilterCategory, cat)
	default:
		return req.WithoutCategory(), nil
	}
}

func (s *Service) recordGap(ctx context.Context, req *request.Request, keywords []string, count int) {
	if s.cfg.MinCoverage <= 0 || len(keywords) == 0 || !gap.IsGap(count, s.cfg.MinCoverage) {
		return
	}
	metrics.KnowledgeGapsTotal.Inc()

	g := gap.Gap{Query: req.Text(), Keywords: keywords, ResultCount: count, DetectedAt: s.now()}
	s.logger.Info("Knowledge gap detected",
		zap.String("topic", g.Key()),
		zap.Int("results", count),
		zap.Int("min_coverage", s.cfg.MinCoverage),
	)
	if s.gaps == nil {
		return
	}
	if err := s.gaps.Record(ctx, g); err != nil {
		s.logger.Warn("Knowledge gap not recorded", zap.String("topic", g.Key()), zap.Error(err))
	}
}

func outcomeOf(err error) string {
	if errors.Is(err, domain.ErrInvalidFilter) {
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeError
}
