// Package catalogfile reads catalog documents from YAML files.
package catalogfile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fredesa/knowledge-registry/internal/domain/ingest"
)

type categoryYAML struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	Dimension   string `yaml:"dimension"`
}

type sourceYAML struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Type        string   `yaml:"type"`
	SourceType  string   `yaml:"source_type"`
	Dimension   string   `yaml:"dimension"`
	URL         string   `yaml:"url"`
	URLs        []string `yaml:"urls"`
	Tags        []string `yaml:"tags"`
	Audience    []string `yaml:"audience"`
	Words       int      `yaml:"words"`
	TrustScore  *float64 `yaml:"trust_score"`
	Status      string   `yaml:"status"`
	Difficulty  string   `yaml:"difficulty"`
}

type documentYAML struct {
	Categories []categoryYAML `yaml:"categories"`
	Sources    []sourceYAML   `yaml:"sources"`
}

// Load reads and parses a catalog file.
func Load(path string) (ingest.Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return ingest.Document{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	doc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return ingest.Document{}, fmt.Errorf("catalog %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a catalog document. A single url is merged in front of urls.
func Parse(r io.Reader) (ingest.Document, error) {
	var raw documentYAML
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return ingest.Document{}, nil
		}
		return ingest.Document{}, fmt.Errorf("parse yaml: %w", err)
	}

	doc := ingest.Document{
		Categories: make([]ingest.CategoryRecord, 0, len(raw.Categories)),
		Sources:    make([]ingest.Record, 0, len(raw.Sources)),
	}
	for _, c := range raw.Categories {
		doc.Categories = append(doc.Categories, ingest.CategoryRecord(c))
	}
	for _, s := range raw.Sources {
		urls := s.URLs
		if s.URL != "" {
			urls = append([]string{s.URL}, urls...)
		}
		doc.Sources = append(doc.Sources, ingest.Record{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Category:    s.Category,
			Type:        s.Type,
			SourceType:  s.SourceType,
			Dimension:   s.Dimension,
			URLs:        urls,
			Tags:        s.Tags,
			Audience:    s.Audience,
			Words:       s.Words,
			TrustScore:  s.TrustScore,
			Status:      s.Status,
			Difficulty:  s.Difficulty,
		})
	}
	return doc, nil
}
