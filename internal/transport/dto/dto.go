// Package dto holds the JSON shapes shared by the HTTP and MCP transports.
package dto

import (
	"sort"
	"strconv"
	"time"

	"github.com/fredesa/knowledge-registry/internal/domain/category"
	"github.com/fredesa/knowledge-registry/internal/domain/search/request"
	"github.com/fredesa/knowledge-registry/internal/domain/search/result"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/source/authority"
	"github.com/fredesa/knowledge-registry/internal/domain/source/dimension"
	"github.com/fredesa/knowledge-registry/internal/domain/stats"
	gapuc "github.com/fredesa/knowledge-registry/internal/usecase/gap"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest    ErrorCode = "bad_request"
	CodeInvalidQuery  ErrorCode = "invalid_query"
	CodeInvalidFilter ErrorCode = "invalid_filter"
	CodeNotFound      ErrorCode = "not_found"
	CodeUnauthorized  ErrorCode = "unauthorized"
	CodeRateLimited   ErrorCode = "rate_limited"
	CodeUnavailable   ErrorCode = "catalog_unavailable"
	CodeInternal      ErrorCode = "internal_error"
)

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// QueryRequest is the query input record.
// query and max_results are accepted as aliases of text and limit.
type QueryRequest struct {
	Text         string `json:"text,omitempty" jsonschema:"free-text question or topic"`
	Query        string `json:"query,omitempty" jsonschema:"alias of text"`
	Dimension    string `json:"dimension,omitempty" jsonschema:"theory, practice, history, current or future"`
	Category     string `json:"category,omitempty" jsonschema:"category key or display name, e.g. Federal_Contracting"`
	MinAuthority *int   `json:"min_authority,omitempty" jsonschema:"minimum authority score 0-100, default 50"`
	Limit        *int   `json:"limit,omitempty" jsonschema:"maximum results 1-15, default 10"`
	MaxResults   *int   `json:"max_results,omitempty" jsonschema:"alias of limit"`
}

// Input converts the request into a domain query input.
func (q QueryRequest) Input() request.Input {
	in := request.Input{
		Text:      q.Text,
		Dimension: q.Dimension,
		Category:  q.Category,
	}
	if in.Text == "" {
		in.Text = q.Query
	}
	if q.MinAuthority != nil {
		in.MinAuthority = *q.MinAuthority
	}
	switch {
	case q.Limit != nil:
		in.Limit = *q.Limit
	case q.MaxResults != nil:
		in.Limit = *q.MaxResults
	}
	return in
}

// Source is a ranked source projection.
type Source struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	URL            string  `json:"url"`
	Description    string  `json:"description"`
	AuthorityScore int     `json:"authority_score"`
	Dimension      string  `json:"dimension"`
	QualityScore   float64 `json:"quality_score"`
	Category       string  `json:"category"`
}

// Filters echoes the filters applied; absent filters are null.
type Filters struct {
	Dimension    *string `json:"dimension"`
	Category     *string `json:"category"`
	MinAuthority int     `json:"min_authority"`
}

// QueryInfo describes how the query was interpreted.
type QueryInfo struct {
	OriginalQuery  string   `json:"original_query"`
	KeywordsUsed   []string `json:"keywords_used"`
	Filters        Filters  `json:"filters"`
	IgnoredFilters []string `json:"ignored_filters,omitempty"`
	ResultCount    int      `json:"result_count"`
}

// QueryResponse is the query output record.
type QueryResponse struct {
	Sources   []Source  `json:"sources"`
	QueryInfo QueryInfo `json:"query_info"`
	Summary   string    `json:"summary"`
}

// FromResult converts a search result.
func FromResult(r *result.Result) QueryResponse {
	info := r.Info()
	srcs := r.Sources()
	out := QueryResponse{
		Sources: make([]Source, len(srcs)),
		QueryInfo: QueryInfo{
			OriginalQuery:  info.OriginalQuery,
			KeywordsUsed:   info.Keywords,
			Filters:        Filters{MinAuthority: info.Filters.MinAuthority},
			IgnoredFilters: info.IgnoredFilters,
			ResultCount:    r.Count(),
		},
		Summary: r.Summary(),
	}
	if out.QueryInfo.KeywordsUsed == nil {
		out.QueryInfo.KeywordsUsed = []string{}
	}
	if d := info.Filters.Dimension; d != "" {
		out.QueryInfo.Filters.Dimension = &d
	}
	if c := info.Filters.Category; c != "" {
		out.QueryInfo.Filters.Category = &c
	}
	for i := range srcs {
		s := &srcs[i]
		out.Sources[i] = Source{
			ID:             s.ID(),
			Name:           s.Name(),
			URL:            s.URL(),
			Description:    s.Description(),
			AuthorityScore: s.Authority(),
			Dimension:      string(s.Dimension()),
			QualityScore:   s.Quality(),
			Category:       s.CategoryLabel(),
		}
	}
	return out
}

// SourceIDRequest selects a single source.
type SourceIDRequest struct {
	SourceID string `json:"source_id" jsonschema:"UUID of the source"`
}

// SourceDetail is the full metadata of a source.
type SourceDetail struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	URL             string  `json:"url"`
	CategoryName    string  `json:"category_name"`
	CategoryDisplay string  `json:"category_display"`
	Dimension       string  `json:"dimension"`
	AuthorityScore  int     `json:"authority_score"`
	AuthorityLabel  string  `json:"authority_label"`
	QualityScore    float64 `json:"quality_score"`
	WordCount       int     `json:"word_count"`
	SourceType      string  `json:"source_type,omitempty"`
	Difficulty      string  `json:"difficulty,omitempty"`
	IsActive        bool    `json:"is_active"`
	CreatedAt       string  `json:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
}

// FromSource converts a source into its detail view.
func FromSource(s *source.Source) SourceDetail {
	d := SourceDetail{
		ID:              s.ID(),
		Name:            s.Name(),
		Description:     s.Description(),
		URL:             s.URL(),
		CategoryName:    s.CategoryName(),
		CategoryDisplay: s.CategoryLabel(),
		Dimension:       string(s.Dimension()),
		AuthorityScore:  s.Authority(),
		AuthorityLabel:  authority.Label(s.Authority()),
		QualityScore:    s.Quality(),
		WordCount:       s.WordCount(),
		SourceType:      s.SourceType(),
		Difficulty:      s.Difficulty(),
		IsActive:        s.Active(),
	}
	d.CreatedAt = timestamp(s.CreatedAt())
	d.UpdatedAt = timestamp(s.UpdatedAt())
	return d
}

// Category is a category with per-dimension counts.
type Category struct {
	Name            string `json:"name"`
	DisplayName     string `json:"display_name"`
	Description     string `json:"description"`
	TotalSources    int    `json:"total_sources"`
	TheorySources   int    `json:"theory_sources"`
	PracticeSources int    `json:"practice_sources"`
	HistorySources  int    `json:"history_sources"`
	CurrentSources  int    `json:"current_sources"`
	FutureSources   int    `json:"future_sources"`
}

// CategoryList wraps a category listing.
type CategoryList struct {
	Categories []Category `json:"categories"`
}

// FromCategories converts a category listing.
func FromCategories(cats []category.Category) CategoryList {
	out := CategoryList{Categories: make([]Category, len(cats))}
	for i := range cats {
		c := &cats[i]
		out.Categories[i] = Category{
			Name:            c.Name(),
			DisplayName:     c.DisplayName(),
			Description:     c.Description(),
			TotalSources:    c.Total(),
			TheorySources:   c.Count(dimension.Theory),
			PracticeSources: c.Count(dimension.Practice),
			HistorySources:  c.Count(dimension.History),
			CurrentSources:  c.Count(dimension.Current),
			FutureSources:   c.Count(dimension.Future),
		}
	}
	return out
}

// Stats is the catalog statistics view. Breakdown keys are strings for JSON.
type Stats struct {
	TotalSources       int            `json:"total_sources"`
	AuthorityBreakdown map[string]int `json:"authority_breakdown"`
	DimensionBreakdown map[string]int `json:"dimension_breakdown"`
	Categories         int            `json:"categories"`
}

// FromStats converts catalog statistics.
func FromStats(st stats.Catalog) Stats {
	out := Stats{
		TotalSources:       st.TotalSources,
		AuthorityBreakdown: make(map[string]int, len(st.ByAuthority)),
		DimensionBreakdown: make(map[string]int, len(st.ByDimension)),
		Categories:         st.Categories,
	}
	for a, n := range st.ByAuthority {
		out.AuthorityBreakdown[strconv.Itoa(a)] = n
	}
	for d, n := range st.ByDimension {
		out.DimensionBreakdown[string(d)] = n
	}
	return out
}

// Gap is a recorded under-covered query. Topic is the key used to resolve it.
type Gap struct {
	Topic       string   `json:"topic"`
	Query       string   `json:"query"`
	Keywords    []string `json:"keywords"`
	ResultCount int      `json:"result_count"`
	DetectedAt  string   `json:"detected_at"`
	Occurrences int64    `json:"occurrences"`
}

// GapList wraps a gap listing.
type GapList struct {
	Gaps []Gap `json:"gaps"`
}

// FromGaps converts gap entries.
func FromGaps(entries []gapuc.Entry) GapList {
	out := GapList{Gaps: make([]Gap, len(entries))}
	for i, e := range entries {
		kws := e.Gap.Keywords
		if kws == nil {
			kws = []string{}
		}
		out.Gaps[i] = Gap{
			Topic:       e.Gap.Key(),
			Query:       e.Gap.Query,
			Keywords:    kws,
			ResultCount: e.Gap.ResultCount,
			DetectedAt:  timestamp(e.Gap.DetectedAt),
			Occurrences: e.Occurrences,
		}
	}
	return out
}

// DetectGapRequest asks for an on-demand coverage check.
type DetectGapRequest struct {
	Query    string   `json:"query" jsonschema:"topic or question to check coverage for"`
	Keywords []string `json:"keywords,omitempty" jsonschema:"keywords to match; extracted from query when empty"`
}

// GapDetection is the coverage check outcome.
type GapDetection struct {
	GapDetected  bool     `json:"gap_detected"`
	SourcesFound int      `json:"sources_found"`
	Action       string   `json:"action"`
	Topic        string   `json:"topic"`
	Keywords     []string `json:"keywords"`
	Message      string   `json:"message,omitempty"`
}

// gapLoggedMessage is returned to callers when a topic is under-covered.
const gapLoggedMessage = "This knowledge area has been logged for review and will be expanded in a future catalog update."

// FromDetection converts a detection.
func FromDetection(d gapuc.Detection) GapDetection {
	out := GapDetection{
		GapDetected:  d.GapDetected,
		SourcesFound: d.SourcesFound,
		Action:       d.Action,
		Topic:        d.Topic,
		Keywords:     d.Keywords,
	}
	if out.Keywords == nil {
		out.Keywords = []string{}
	}
	if d.GapDetected {
		out.Message = gapLoggedMessage
	}
	return out
}

// ResolveGapRequest names a gap topic to clear.
type ResolveGapRequest struct {
	Topic string `json:"topic" jsonschema:"gap topic key, e.g. export+itar"`
}

// GapResolution reports a resolved topic.
type GapResolution struct {
	Topic         string `json:"topic"`
	EventsRemoved int    `json:"events_removed"`
}

// FromResolution converts a resolution.
func FromResolution(r gapuc.Resolution) GapResolution {
	return GapResolution{Topic: r.Topic, EventsRemoved: r.EventsRemoved}
}

// timestamp renders t as RFC 3339 in UTC, empty for the zero time.
func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Tool describes a callable tool.
type Tool struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Parameters  map[string]string `json:"parameters"`
}

// ToolList wraps the tool catalog.
type ToolList struct {
	Tools []Tool `json:"tools"`
}

// Tool names exposed over HTTP and MCP.
const (
	ToolQueryKnowledgeBase = "query_knowledge_base"
	ToolGetSourceDetails   = "get_source_details"
	ToolListCategories     = "list_categories"
	ToolDetectKnowledgeGap = "detect_knowledge_gap"
)

// Tool descriptions shared by both transports.
const (
	DescQueryKnowledgeBase = "Search authoritative federal-proposal sources with dimension, category and authority filtering"
	DescGetSourceDetails   = "Get full metadata for a specific source"
	DescListCategories     = "List knowledge categories with source counts per dimension"
	DescDetectKnowledgeGap = "Check catalog coverage for a topic and log it for review when fewer than two sources match"
)

// Tools returns the tool catalog sorted by name.
func Tools() ToolList {
	tools := []Tool{
		{
			Name:        ToolQueryKnowledgeBase,
			Description: DescQueryKnowledgeBase,
			Parameters: map[string]string{
				"text":          "string (required)",
				"dimension":     "string (optional): theory/practice/history/current/future",
				"category":      "string (optional): Federal_Contracting, Cybersecurity, etc.",
				"min_authority": "integer (0-100, default: 50)",
				"limit":         "integer (1-15, default: 10)",
			},
		},
		{
			Name:        ToolGetSourceDetails,
			Description: DescGetSourceDetails,
			Parameters:  map[string]string{"source_id": "string (required): UUID of the source"},
		},
		{
			Name:        ToolListCategories,
			Description: DescListCategories,
			Parameters:  map[string]string{},
		},
		{
			Name:        ToolDetectKnowledgeGap,
			Description: DescDetectKnowledgeGap,
			Parameters: map[string]string{
				"query":    "string (required)",
				"keywords": "array of strings (optional)",
			},
		},
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return ToolList{Tools: tools}
}
