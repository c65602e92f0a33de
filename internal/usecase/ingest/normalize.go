package ingest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fredesa/knowledge-registry/internal/domain/category"
	rawingest "github.com/fredesa/knowledge-registry/internal/domain/ingest"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/source/authority"
	"github.com/fredesa/knowledge-registry/internal/domain/source/dimension"
)

// Normalization defaults.
const (
	DefaultCategory = "Uncategorized"
	DefaultQuality  = 50.0
	StatusActive    = "active"
)

// Difficulty levels.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// idNamespace scopes name-based source UUIDs so re-ingesting a file updates rows in place.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://fredesa.com/knowledge-registry/sources"))

// categoryDimensions is the default dimension for well-known categories.
var categoryDimensions = map[string]dimension.Dimension{
	"Standards":             dimension.Theory,
	"Federal_Contracting":   dimension.Practice,
	"Cybersecurity":         dimension.Current,
	"Intelligence":          dimension.Current,
	"Cloud_Platforms":       dimension.Practice,
	"LLM_Frameworks":        dimension.Practice,
	"Methodologies":         dimension.Theory,
	"Programming_Languages": dimension.Practice,
	"AI/LLM_Platforms":      dimension.Practice,
	"Data_Engineering":      dimension.Practice,
}

var (
	officialTerms = map[string]struct{}{
		"dod": {}, "nist": {}, "iso": {}, "far": {}, "dfars": {},
		"fedramp": {}, "government": {}, "federal": {},
	}
	expertTerms = []string{"documentation", "reference", "specification", "standard"}
)

// Rejection explains why a record was not ingested.
type Rejection struct {
	RecordID string
	Reason   string
}

// Catalog is a normalized catalog ready to be written.
type Catalog struct {
	Categories []category.Category
	Sources    []source.Source
	Rejected   []Rejection
}

// Normalize turns raw records into validated sources and categories.
// Authority tiers, dimensions, ids and category counts are derived here so the
// query path only ever sees canonical values.
func Normalize(doc rawingest.Document, now time.Time) Catalog {
	declared := make(map[string]rawingest.CategoryRecord, len(doc.Categories))
	for _, c := range doc.Categories {
		if c.Name != "" {
			declared[c.Name] = c
		}
	}

	var out Catalog
	seen := make(map[string]struct{}, len(doc.Sources))
	for i := range doc.Sources {
		rec := &doc.Sources[i]
		s, err := normalizeSource(rec, declared, now)
		if err != nil {
			out.Rejected = append(out.Rejected, Rejection{RecordID: recordLabel(rec, i), Reason: err.Error()})
			continue
		}
		if _, dup := seen[s.ID()]; dup {
			out.Rejected = append(out.Rejected, Rejection{RecordID: recordLabel(rec, i), Reason: "duplicate source"})
			continue
		}
		seen[s.ID()] = struct{}{}
		out.Sources = append(out.Sources, s)
	}

	out.Categories = buildCategories(doc.Categories, out.Sources)
	return out
}

// SourceID returns the stable UUID for a record key.
func SourceID(key string) string {
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

func normalizeSource(rec *rawingest.Record, declared map[string]rawingest.CategoryRecord, now time.Time) (source.Source, error) {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return source.Source{}, fmt.Errorf("name is required")
	}
	url := primaryURL(rec.URLs)
	if url == "" {
		return source.Source{}, fmt.Errorf("at least one URL is required")
	}

	catName := strings.TrimSpace(rec.Category)
	if catName == "" {
		catName = DefaultCategory
	}
	display := category.DisplayName(catName)
	if c, ok := declared[catName]; ok && c.DisplayName != "" {
		display = c.DisplayName
	}

	dim, err := resolveDimension(rec.Dimension, declared[catName].Dimension, catName)
	if err != nil {
		return source.Source{}, err
	}

	sourceType := ClassifySourceType(rec)
	quality := DefaultQuality
	if rec.TrustScore != nil {
		quality = clamp(*rec.TrustScore, 0, source.MaxQuality)
	}
	difficulty := strings.ToLower(strings.TrimSpace(rec.Difficulty))
	if difficulty == "" {
		difficulty = Difficulty(name, rec.Audience)
	}

	key := rec.ID
	if key == "" {
		key = url
	}
	status := strings.ToLower(strings.TrimSpace(rec.Status))

	return source.New(source.Attrs{
		ID:              SourceID(key),
		Name:            name,
		Description:     strings.TrimSpace(rec.Description),
		URL:             url,
		CategoryName:    catName,
		CategoryDisplay: display,
		Dimension:       dim,
		Authority:       authority.FromSourceType(sourceType),
		Quality:         quality,
		WordCount:       max(rec.Words, 0),
		SourceType:      sourceType,
		Difficulty:      difficulty,
		Active:          status == "" || status == StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

// ClassifySourceType returns the record's explicit tier type, or infers one
// from its name, tags and type.
func ClassifySourceType(rec *rawingest.Record) string {
	switch t := strings.ToLower(strings.TrimSpace(rec.SourceType)); t {
	case authority.TypeOfficial, authority.TypeExpert, authority.TypeCommunity:
		return t
	}

	name := strings.ToLower(rec.Name)
	terms := words(name)
	for _, tag := range rec.Tags {
		terms = append(terms, words(strings.ToLower(tag))...)
	}
	for _, w := range terms {
		if _, ok := officialTerms[w]; ok {
			return authority.TypeOfficial
		}
	}

	if strings.EqualFold(rec.Type, "documentation") {
		return authority.TypeExpert
	}
	for _, term := range expertTerms {
		if strings.Contains(name, term) {
			return authority.TypeExpert
		}
	}
	return authority.TypeCommunity
}

// Difficulty infers a level from the audience and the name.
func Difficulty(name string, audience []string) string {
	aud := strings.ToLower(strings.Join(audience, " "))
	switch {
	case strings.Contains(aud, "beginners") || strings.Contains(strings.ToLower(name), "getting-started"):
		return DifficultyBeginner
	case strings.Contains(aud, "advanced") || strings.Contains(aud, "expert"):
		return DifficultyAdvanced
	default:
		return DifficultyIntermediate
	}
}

// DimensionFor returns the default dimension of a category.
func DimensionFor(categoryName string) dimension.Dimension {
	if d, ok := categoryDimensions[categoryName]; ok {
		return d
	}
	return dimension.Current
}

func resolveDimension(explicit, categoryDefault, catName string) (dimension.Dimension, error) {
	if strings.TrimSpace(explicit) != "" {
		d, ok := dimension.Parse(explicit)
		if !ok {
			return "", fmt.Errorf("unknown dimension %q", explicit)
		}
		return d, nil
	}
	if d, ok := dimension.Parse(categoryDefault); ok {
		return d, nil
	}
	return DimensionFor(catName), nil
}

func buildCategories(declared []rawingest.CategoryRecord, sources []source.Source) []category.Category {
	type agg struct {
		cat    category.Category
		total  int
		counts map[dimension.Dimension]int
	}
	byName := map[string]*agg{}
	add := func(name, display, desc string) *agg {
		if a, ok := byName[name]; ok {
			return a
		}
		c, err := category.New(name, display, desc)
		if err != nil {
			return nil
		}
		a := &agg{cat: c, counts: map[dimension.Dimension]int{}}
		byName[name] = a
		return a
	}

	for _, c := range declared {
		add(strings.TrimSpace(c.Name), c.DisplayName, c.Description)
	}
	for i := range sources {
		s := &sources[i]
		a := add(s.CategoryName(), s.CategoryDisplay(), "")
		if a == nil || !s.Active() {
			continue
		}
		a.total++
		a.counts[s.Dimension()]++
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]category.Category, 0, len(names))
	for _, name := range names {
		a := byName[name]
		out = append(out, a.cat.WithCounts(a.total, a.counts))
	}
	return out
}

func primaryURL(urls []string) string {
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			return u
		}
	}
	return ""
}

func recordLabel(rec *rawingest.Record, index int) string {
	switch {
	case rec.ID != "":
		return rec.ID
	case rec.Name != "":
		return rec.Name
	default:
		return fmt.Sprintf("#%d", index)
	}
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
