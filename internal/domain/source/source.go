package source

import (
	"fmt"
	"strings"
	"time"

	"github.com/fredesa/knowledge-registry/internal/domain/source/authority"
	"github.com/fredesa/knowledge-registry/internal/domain/source/dimension"
)

// MaxQuality is the upper bound of the quality score.
const MaxQuality = 100.0

// Attrs carries the fields of a Source for construction.
type Attrs struct {
	ID              string
	Name            string
	Description     string
	URL             string
	CategoryName    string
	CategoryDisplay string
	Dimension       dimension.Dimension
	Authority       int
	Quality         float64
	WordCount       int
	SourceType      string
	Difficulty      string
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Source is a knowledge item in the catalog (immutable value object).
type Source struct {
	id              string
	name            string
	description     string
	url             string
	categoryName    string
	categoryDisplay string
	dim             dimension.Dimension
	authority       int
	quality         float64
	wordCount       int
	sourceType      string
	difficulty      string
	active          bool
	createdAt       time.Time
	updatedAt       time.Time
}

// New validates and creates a Source.
// Authority must be a canonical tier; tier derivation happens at ingestion.
func New(a Attrs) (Source, error) {
	if strings.TrimSpace(a.ID) == "" {
		return Source{}, fmt.Errorf("source ID is required")
	}
	if strings.TrimSpace(a.Name) == "" {
		return Source{}, fmt.Errorf("source name is required")
	}
	if a.CategoryName == "" {
		return Source{}, fmt.Errorf("source %q: category is required", a.ID)
	}
	if !a.Dimension.IsValid() {
		return Source{}, fmt.Errorf("source %q: invalid dimension %q", a.ID, a.Dimension)
	}
	if !authority.IsCanonical(a.Authority) {
		return Source{}, fmt.Errorf("source %q: authority %d is not a canonical tier", a.ID, a.Authority)
	}
	if a.Quality < 0 || a.Quality > MaxQuality {
		return Source{}, fmt.Errorf("source %q: quality must be between 0 and %.0f", a.ID, MaxQuality)
	}
	if a.WordCount < 0 {
		return Source{}, fmt.Errorf("source %q: word count must be non-negative", a.ID)
	}
	return Reconstruct(a), nil
}

// Reconstruct creates a Source without validation (storage hydration).
func Reconstruct(a Attrs) Source {
	return Source{
		id:              a.ID,
		name:            a.Name,
		description:     a.Description,
		url:             a.URL,
		categoryName:    a.CategoryName,
		categoryDisplay: a.CategoryDisplay,
		dim:             a.Dimension,
		authority:       a.Authority,
		quality:         a.Quality,
		wordCount:       a.WordCount,
		sourceType:      a.SourceType,
		difficulty:      a.Difficulty,
		active:          a.Active,
		createdAt:       a.CreatedAt,
		updatedAt:       a.UpdatedAt,
	}
}

// ID returns the source identifier.
func (s *Source) ID() string { return s.id }

// Name returns the source title.
func (s *Source) Name() string { return s.name }

// Description returns the source description.
func (s *Source) Description() string { return s.description }

// URL returns the canonical location.
func (s *Source) URL() string { return s.url }

// CategoryName returns the category key.
func (s *Source) CategoryName() string { return s.categoryName }

// CategoryDisplay returns the category display name.
func (s *Source) CategoryDisplay() string { return s.categoryDisplay }

// CategoryLabel returns the display name, falling back to the key.
func (s *Source) CategoryLabel() string {
	if s.categoryDisplay != "" {
		return s.categoryDisplay
	}
	return s.categoryName
}

// Dimension returns the epistemological dimension.
func (s *Source) Dimension() dimension.Dimension { return s.dim }

// Authority returns the authority tier score.
func (s *Source) Authority() int { return s.authority }

// Quality returns the quality score.
func (s *Source) Quality() float64 { return s.quality }

// WordCount returns the approximate word count.
func (s *Source) WordCount() int { return s.wordCount }

// SourceType returns the classification the authority was derived from.
func (s *Source) SourceType() string { return s.sourceType }

// Difficulty returns the difficulty level.
func (s *Source) Difficulty() string { return s.difficulty }

// Active reports whether the source is served to queries.
func (s *Source) Active() bool { return s.active }

// CreatedAt returns the creation time.
func (s *Source) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the last update time.
func (s *Source) UpdatedAt() time.Time { return s.updatedAt }

// Attrs returns a copy of the source fields.
func (s *Source) Attrs() Attrs {
	return Attrs{
		ID:              s.id,
		Name:            s.name,
		Description:     s.description,
		URL:             s.url,
		CategoryName:    s.categoryName,
		CategoryDisplay: s.categoryDisplay,
		Dimension:       s.dim,
		Authority:       s.authority,
		Quality:         s.quality,
		WordCount:       s.wordCount,
		SourceType:      s.sourceType,
		Difficulty:      s.difficulty,
		Active:          s.active,
		CreatedAt:       s.createdAt,
		UpdatedAt:       s.updatedAt,
	}
}
