// Package ingest holds the raw catalog records fed to normalization.
package ingest

// Record is a source as authored in a catalog file, before normalization.
type Record struct {
	ID          string
	Name        string
	Description string
	Category    string
	Type        string
	SourceType  string
	Dimension   string
	URLs        []string
	Tags        []string
	Audience    []string
	Words       int
	TrustScore  *float64
	Status      string
	Difficulty  string
}

// CategoryRecord is a category declaration from a catalog file.
type CategoryRecord struct {
	Name        string
	DisplayName string
	Description string
	Dimension   string
}

// Document is a complete catalog file.
type Document struct {
	Categories []CategoryRecord
	Sources    []Record
}
