package rank

import (
	"sort"

	"github.com/fredesa/knowledge-registry/internal/domain/source"
)

// Rank orders sources by authority then quality, both descending, and keeps
// at most limit of them. Ties keep catalog order. The input is not modified.
func Rank(sources []source.Source, limit int) []source.Source {
	out := make([]source.Source, len(sources))
	copy(out, sources)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Authority() != out[j].Authority() {
			return out[i].Authority() > out[j].Authority()
		}
		return out[i].Quality() > out[j].Quality()
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
