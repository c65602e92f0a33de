package dimension

import "strings"

// Dimension classifies the kind of knowledge a source carries.
type Dimension string

// Epistemological dimensions.
const (
	Theory   Dimension = "theory"
	Practice Dimension = "practice"
	History  Dimension = "history"
	Current  Dimension = "current"
	Future   Dimension = "future"
)

// All lists the dimensions in canonical order.
func All() []Dimension {
	return []Dimension{Theory, Practice, History, Current, Future}
}

// IsValid checks if the dimension is one of the canonical values.
func (d Dimension) IsValid() bool {
	switch d {
	case Theory, Practice, History, Current, Future:
		return true
	}
	return false
}

// Parse normalizes s (trim, lowercase) and reports whether it names a dimension.
func Parse(s string) (Dimension, bool) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	return d, d.IsValid()
}
