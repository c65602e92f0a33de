package result

import "github.com/fredesa/knowledge-registry/internal/domain/source"

// Filters echoes the filters a query was evaluated with.
type Filters struct {
	Dimension    string
	Category     string
	MinAuthority int
}

// Info describes how a query was interpreted.
type Info struct {
	OriginalQuery  string
	Keywords       []string
	Filters        Filters
	IgnoredFilters []string
}

// Result is the ranked answer to a query. It is always well formed, even when empty.
type Result struct {
	sources []source.Source
	info    Info
	summary string
}

// New creates a Result. A nil source list becomes empty.
func New(sources []source.Source, info Info, summary string) Result {
	if sources == nil {
		sources = []source.Source{}
	}
	if info.Keywords == nil {
		info.Keywords = []string{}
	}
	return Result{sources: sources, info: info, summary: summary}
}

// Sources returns the ranked sources.
func (r *Result) Sources() []source.Source { return r.sources }

// Info returns the query interpretation.
func (r *Result) Info() Info { return r.info }

// Count returns the number of sources.
func (r *Result) Count() int { return len(r.sources) }

// Summary returns the human-readable summary paragraph.
func (r *Result) Summary() string { return r.summary }
