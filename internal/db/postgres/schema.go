package postgres

import (
	"context"
	"fmt"
)

const (
	sqlCreateCategories = `
		CREATE TABLE IF NOT EXISTS categories (
			name           TEXT PRIMARY KEY,
			display_name   TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			total_sources  INTEGER NOT NULL DEFAULT 0,
			theory_count   INTEGER NOT NULL DEFAULT 0,
			practice_count INTEGER NOT NULL DEFAULT 0,
			history_count  INTEGER NOT NULL DEFAULT 0,
			current_count  INTEGER NOT NULL DEFAULT 0,
			future_count   INTEGER NOT NULL DEFAULT 0,
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`

	sqlCreateSources = `
		CREATE TABLE IF NOT EXISTS sources (
			id              UUID PRIMARY KEY,
			name            TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			url             TEXT NOT NULL DEFAULT '',
			category_name   TEXT NOT NULL REFERENCES categories(name),
			dimension       TEXT NOT NULL CHECK (dimension IN ('theory', 'practice', 'history', 'current', 'future')),
			authority_score INTEGER NOT NULL CHECK (authority_score IN (50, 70, 90)),
			quality_score   REAL NOT NULL DEFAULT 50 CHECK (quality_score BETWEEN 0 AND 100),
			word_count      INTEGER NOT NULL DEFAULT 0,
			source_type     TEXT NOT NULL DEFAULT 'community',
			difficulty      TEXT NOT NULL DEFAULT '',
			is_active       BOOLEAN NOT NULL DEFAULT TRUE,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`

	sqlIndexSourcesCategory  = `CREATE INDEX IF NOT EXISTS idx_sources_category ON sources(category_name)`
	sqlIndexSourcesDimension = `CREATE INDEX IF NOT EXISTS idx_sources_dimension ON sources(dimension)`
	sqlIndexSourcesRank      = `CREATE INDEX IF NOT EXISTS idx_sources_rank ON sources(authority_score DESC, quality_score DESC) WHERE is_active`
)

var schemaStatements = []string{
	sqlCreateCategories,
	sqlCreateSources,
	sqlIndexSourcesCategory,
	sqlIndexSourcesDimension,
	sqlIndexSourcesRank,
}

// EnsureSchema creates the catalog tables and indexes if absent.
func (c *Client) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := c.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema step %d: %w", i+1, err)
		}
	}
	return nil
}
