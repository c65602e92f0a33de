package filter

import (
	"strconv"
	"strings"

	"github.com/fredesa/knowledge-registry/internal/domain/search/keyword"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/source/dimension"
)

// DefaultMinAuthority is the authority floor applied when the caller sets none.
const DefaultMinAuthority = 50

// Predicate is a conjunctive condition over catalog sources.
//
// A source satisfies it when its authority is at least the floor, its
// dimension and category equal the optional filters, and any keyword is a
// case-insensitive substring of its name, description or category key.
type Predicate struct {
	keywords     []string
	dim          dimension.Dimension
	category     string
	minAuthority int
}

// Build creates a Predicate. An invalid dimension or blank category is
// treated as absent; extra keywords beyond keyword.MaxKeywords are dropped.
func Build(keywords []string, dim dimension.Dimension, category string, minAuthority int) Predicate {
	kws := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		kws = append(kws, kw)
		if len(kws) == keyword.MaxKeywords {
			break
		}
	}
	if !dim.IsValid() {
		dim = ""
	}
	return Predicate{
		keywords:     kws,
		dim:          dim,
		category:     strings.TrimSpace(category),
		minAuthority: minAuthority,
	}
}

// Keywords returns the lowercase keywords (OR-combined).
func (p Predicate) Keywords() []string { return p.keywords }

// Dimension returns the dimension filter, if any.
func (p Predicate) Dimension() (dimension.Dimension, bool) { return p.dim, p.dim != "" }

// Category returns the category filter, if any.
func (p Predicate) Category() (string, bool) { return p.category, p.category != "" }

// MinAuthority returns the authority floor.
func (p Predicate) MinAuthority() int { return p.minAuthority }

// IsAuthorityOnly reports whether the floor is the only condition.
func (p Predicate) IsAuthorityOnly() bool {
	return len(p.keywords) == 0 && p.dim == "" && p.category == ""
}

// Matches evaluates the predicate against s.
func (p Predicate) Matches(s source.Source) bool {
	if s.Authority() < p.minAuthority {
		return false
	}
	if p.dim != "" && s.Dimension() != p.dim {
		return false
	}
	if p.category != "" && s.CategoryName() != p.category && s.CategoryDisplay() != p.category {
		return false
	}
	if len(p.keywords) == 0 {
		return true
	}
	name := strings.ToLower(s.Name())
	desc := strings.ToLower(s.Description())
	cat := strings.ToLower(s.CategoryName())
	for _, kw := range p.keywords {
		if strings.Contains(name, kw) || strings.Contains(desc, kw) || strings.Contains(cat, kw) {
			return true
		}
	}
	return false
}

// Key is a canonical string form, equal for equal predicates.
func (p Predicate) Key() string {
	var b strings.Builder
	b.WriteString("a=")
	b.WriteString(strconv.Itoa(p.minAuthority))
	b.WriteString("|d=")
	b.WriteString(string(p.dim))
	b.WriteString("|c=")
	b.WriteString(p.category)
	b.WriteString("|k=")
	b.WriteString(strings.Join(p.keywords, ","))
	return b.String()
}
