package category

import (
	"fmt"
	"strings"

	"github.com/fredesa/knowledge-registry/internal/domain/source/dimension"
)

// Category groups sources and keeps per-dimension counts.
type Category struct {
	name        string
	displayName string
	description string
	counts      map[dimension.Dimension]int
	total       int
}

// New validates and creates a Category. An empty display name is derived from the key.
func New(name, displayName, description string) (Category, error) {
	if strings.TrimSpace(name) == "" {
		return Category{}, fmt.Errorf("category name is required")
	}
	if displayName == "" {
		displayName = DisplayName(name)
	}
	return Category{
		name:        name,
		displayName: displayName,
		description: description,
		counts:      map[dimension.Dimension]int{},
	}, nil
}

// Reconstruct creates a Category without validation (storage hydration).
func Reconstruct(name, displayName, description string, total int, counts map[dimension.Dimension]int) Category {
	if counts == nil {
		counts = map[dimension.Dimension]int{}
	}
	return Category{name: name, displayName: displayName, description: description, counts: counts, total: total}
}

// DisplayName derives a human label from a category key.
func DisplayName(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

// Name returns the category key.
func (c *Category) Name() string { return c.name }

// DisplayName returns the human label.
func (c *Category) DisplayName() string { return c.displayName }

// Description returns the category description.
func (c *Category) Description() string { return c.description }

// Total returns the number of active sources.
func (c *Category) Total() int { return c.total }

// Count returns the number of active sources in dimension d.
func (c *Category) Count(d dimension.Dimension) int { return c.counts[d] }

// Matches reports whether label equals the key or the display name.
func (c *Category) Matches(label string) bool {
	return label == c.name || label == c.displayName
}

// WithCounts returns a copy carrying the given totals.
func (c Category) WithCounts(total int, counts map[dimension.Dimension]int) Category {
	cp := make(map[dimension.Dimension]int, len(counts))
	for d, n := range counts {
		cp[d] = n
	}
	c.total = total
	c.counts = cp
	return c
}
