package summary

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/source/authority"
)

// Formatting limits.
const (
	TopResults        = 3
	MaxDescriptionLen = 200
)

// Input is what a summary is written from.
type Input struct {
	Query        string
	Sources      []source.Source
	Dimension    string
	Category     string
	MinAuthority int
}

// Format writes a one-paragraph summary of a ranked result set.
func Format(in Input) string {
	var b strings.Builder

	n := len(in.Sources)
	if n == 0 {
		b.WriteString("No sources found")
	} else {
		fmt.Fprintf(&b, "Found %d %s", n, plural(n, "source", "sources"))
	}
	if q := strings.TrimSpace(in.Query); q != "" {
		fmt.Fprintf(&b, " for %q", q)
	}
	fmt.Fprintf(&b, " with authority %d+", in.MinAuthority)
	if n > 0 {
		fmt.Fprintf(&b, " (%s)", tierBreakdown(in.Sources))
	}
	b.WriteString(".")

	switch {
	case in.Dimension == "" && in.Category == "":
		b.WriteString(" No dimension or category filter applied.")
	default:
		if in.Dimension != "" {
			fmt.Fprintf(&b, " Dimension filter: %s.", in.Dimension)
		}
		if in.Category != "" {
			fmt.Fprintf(&b, " Category filter: %s.", in.Category)
		}
	}

	if n == 0 {
		b.WriteString(" Try broader keywords or a lower authority threshold.")
		return b.String()
	}

	b.WriteString(" Top results: ")
	top := min(n, TopResults)
	for i := 0; i < top; i++ {
		s := &in.Sources[i]
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%d. %s (authority %d, %s)", i+1, s.Name(), s.Authority(), s.CategoryLabel())
	}
	b.WriteString(".")
	return b.String()
}

// AgentContext renders sources as a block for inclusion in an LLM prompt.
func AgentContext(sources []source.Source) string {
	if len(sources) == 0 {
		return "No relevant knowledge sources found in the database."
	}

	lines := []string{"KNOWLEDGE BASE SOURCES:", ""}
	for i := range sources {
		s := &sources[i]
		lines = append(lines,
			fmt.Sprintf("%d. %s", i+1, s.Name()),
			fmt.Sprintf("   - Authority: %d (%s)", s.Authority(), strings.ToUpper(authority.Label(s.Authority()))),
			fmt.Sprintf("   - Category: %s", s.CategoryLabel()),
			fmt.Sprintf("   - Dimension: %s", strings.ToUpper(string(s.Dimension()))),
			fmt.Sprintf("   - URL: %s", s.URL()),
		)
		if d := s.Description(); d != "" {
			lines = append(lines, "   - Description: "+Truncate(d, MaxDescriptionLen))
		}
		lines = append(lines, "")
	}
	lines = append(lines,
		"USAGE GUIDANCE:",
		"- Official sources (90): federal regulations and DoD standards, cite directly",
		"- Expert sources (70): technical documentation, reference as guidance",
		"- Community sources (50): open-source resources, validate before citing",
		"",
		"Always include source citations in your response with [Source: Name] format.",
	)
	return strings.Join(lines, "\n")
}

// Truncate shortens s to n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}

func tierBreakdown(sources []source.Source) string {
	counts := map[string]int{}
	for i := range sources {
		counts[authority.Label(sources[i].Authority())]++
	}
	var parts []string
	for _, label := range []string{authority.TypeOfficial, authority.TypeExpert, authority.TypeCommunity} {
		if c := counts[label]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, label))
		}
	}
	return strings.Join(parts, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
