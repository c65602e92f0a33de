package gap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fredesa/knowledge-registry/internal/domain"
	"github.com/fredesa/knowledge-registry/internal/domain/gap"
	"github.com/fredesa/knowledge-registry/internal/domain/search/filter"
	"github.com/fredesa/knowledge-registry/internal/domain/search/keyword"
	"github.com/fredesa/knowledge-registry/internal/metrics"
)

// Listing limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Entry is a recorded gap with the number of times its topic was hit.
type Entry struct {
	Gap         gap.Gap
	Occurrences int64
}

// Detection actions.
const (
	ActionNone   = "none_needed"
	ActionLogged = "logged_for_review"
)

// Detection is the outcome of an on-demand coverage check.
type Detection struct {
	Topic        string
	Keywords     []string
	SourcesFound int
	GapDetected  bool
	Action       string
}

// Resolution reports what resolving a topic removed.
type Resolution struct {
	Topic         string
	EventsRemoved int
}

// Service manages the knowledge gap log.
type Service struct {
	store       Store
	catalog     Catalog
	minCoverage int
	now         func() time.Time
}

// New creates a gap service. A non-positive minCoverage selects gap.DefaultMinCoverage.
func New(store Store, catalog Catalog, minCoverage int) *Service {
	if minCoverage <= 0 {
		minCoverage = gap.DefaultMinCoverage
	}
	return &Service{store: store, catalog: catalog, minCoverage: minCoverage, now: time.Now}
}

// Recent returns up to limit gaps, newest first, each with its topic count.
func (s *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	gaps, err := s.store.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent gaps: %w", err)
	}

	counts := make(map[string]int64, len(gaps))
	out := make([]Entry, 0, len(gaps))
	for _, g := range gaps {
		key := g.Key()
		n, ok := counts[key]
		if !ok {
			n, err = s.store.Occurrences(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("gap occurrences %s: %w", key, err)
			}
			counts[key] = n
		}
		out = append(out, Entry{Gap: g, Occurrences: n})
	}
	return out, nil
}

// Detect checks catalog coverage for a topic. Explicit keywords win; otherwise
// they are extracted from query. Sources are counted at the default authority
// floor, and an under-covered topic is logged like a query gap.
func (s *Service) Detect(ctx context.Context, query string, keywords []string) (Detection, error) {
	kws := keyword.Extract(strings.Join(keywords, " "))
	if len(kws) == 0 {
		kws = keyword.Extract(query)
	}
	if len(kws) == 0 {
		return Detection{}, fmt.Errorf("%w: no keywords to check", domain.ErrInvalidQuery)
	}

	pred := filter.Build(kws, "", "", filter.DefaultMinAuthority)
	candidates, err := s.catalog.FetchCandidates(ctx, pred)
	if err != nil {
		return Detection{}, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}

	if strings.TrimSpace(query) == "" {
		query = strings.Join(kws, " ")
	}
	g := gap.Gap{Query: query, Keywords: kws, ResultCount: len(candidates), DetectedAt: s.now()}
	d := Detection{Topic: g.Key(), Keywords: kws, SourcesFound: len(candidates), Action: ActionNone}
	if !gap.IsGap(len(candidates), s.minCoverage) {
		return d, nil
	}

	d.GapDetected = true
	d.Action = ActionLogged
	metrics.KnowledgeGapsTotal.Inc()
	if err := s.store.Record(ctx, g); err != nil {
		return Detection{}, fmt.Errorf("record gap %s: %w", d.Topic, err)
	}
	return d, nil
}

// Resolve removes a topic from the gap log once it has been covered.
// The key is normalized, so keyword order and case do not matter.
func (s *Service) Resolve(ctx context.Context, key string) (Resolution, error) {
	topic := TopicKey(key)
	if topic == "" {
		return Resolution{}, fmt.Errorf("%w: gap key is required", domain.ErrInvalidQuery)
	}
	removed, counted, err := s.store.Resolve(ctx, topic)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve gap %s: %w", topic, err)
	}
	if removed == 0 && !counted {
		return Resolution{}, fmt.Errorf("%w: knowledge gap %q", domain.ErrNotFound, topic)
	}
	return Resolution{Topic: topic, EventsRemoved: removed}, nil
}

// TopicKey normalizes a keyword list joined by "+", commas or spaces to the stored topic key.
func TopicKey(key string) string {
	kws := strings.FieldsFunc(strings.ToLower(key), func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})
	return gap.Gap{Keywords: kws}.Key()
}
