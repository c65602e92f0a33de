package gap

import (
	"sort"
	"strings"
	"time"
)

// DefaultMinCoverage is the result count below which a query is a gap.
const DefaultMinCoverage = 2

// Gap is a query the catalog could not cover well.
type Gap struct {
	Query       string
	Keywords    []string
	ResultCount int
	DetectedAt  time.Time
}

// IsGap reports whether count results leave the query under-covered.
func IsGap(count, minCoverage int) bool {
	return count < minCoverage
}

// Key identifies the topic independent of keyword order.
// Queries without keywords have no key.
func (g Gap) Key() string {
	if len(g.Keywords) == 0 {
		return ""
	}
	kws := append([]string(nil), g.Keywords...)
	sort.Strings(kws)
	return strings.Join(kws, "+")
}
