package keyword

import (
	"strings"
	"unicode"
)

// Extraction limits.
const (
	MaxKeywords = 5
	MinLength   = 3
)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "from": {}, "as": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {},
	"would": {}, "should": {}, "could": {}, "may": {}, "might": {}, "can": {},
	"what": {}, "how": {}, "when": {}, "where": {}, "who": {}, "which": {},
	"this": {}, "that": {}, "these": {}, "those": {},
}

// IsStopWord reports whether w is filtered out of queries.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// Extract returns up to MaxKeywords distinct lowercase keywords from text,
// in order of first appearance.
//
// A keyword is a whole word (a run of letters, digits and underscores) made
// only of ASCII letters, at least MinLength long, and not a stop word.
// "far-19" yields "far"; "sub2contract" yields nothing.
func Extract(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})

	out := make([]string, 0, MaxKeywords)
	seen := make(map[string]struct{}, MaxKeywords)
	for _, w := range words {
		if len(w) < MinLength || !isASCIILower(w) || IsStopWord(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == MaxKeywords {
			break
		}
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isASCIILower(w string) bool {
	for i := 0; i < len(w); i++ {
		if w[i] < 'a' || w[i] > 'z' {
			return false
		}
	}
	return true
}
