package stats

import "github.com/fredesa/knowledge-registry/internal/domain/source/dimension"

// Catalog is an aggregate view of the active catalog.
type Catalog struct {
	TotalSources int
	ByAuthority  map[int]int
	ByDimension  map[dimension.Dimension]int
	Categories   int
}

// NewCatalog creates an empty Catalog with initialized maps.
func NewCatalog() Catalog {
	return Catalog{
		ByAuthority: map[int]int{},
		ByDimension: map[dimension.Dimension]int{},
	}
}
