package authority

import "strings"

// Canonical authority tiers.
const (
	Community = 50
	Expert    = 70
	Official  = 90
)

// Source types that map onto tiers.
const (
	TypeOfficial  = "official"
	TypeExpert    = "expert"
	TypeCommunity = "community"
)

// Tiers lists the canonical scores, highest first.
func Tiers() []int { return []int{Official, Expert, Community} }

// IsCanonical reports whether score is one of the three tiers.
func IsCanonical(score int) bool {
	return score == Official || score == Expert || score == Community
}

// FromSourceType maps a source type onto its tier. Unknown types are community.
func FromSourceType(sourceType string) int {
	switch strings.ToLower(strings.TrimSpace(sourceType)) {
	case TypeOfficial:
		return Official
	case TypeExpert:
		return Expert
	default:
		return Community
	}
}

// Label names the tier a score falls into.
func Label(score int) string {
	switch {
	case score >= Official:
		return TypeOfficial
	case score >= Expert:
		return TypeExpert
	default:
		return TypeCommunity
	}
}
