package catalog

const (
	selectSources = `SELECT s.id, s.name, s.description, s.url, s.category_name, c.display_name,
		s.dimension, s.authority_score, s.quality_score, s.word_count, s.source_type,
		s.difficulty, s.is_active, s.created_at, s.updated_at
	FROM sources s JOIN categories c ON c.name = s.category_name`

	sqlListCategories = `SELECT name, display_name, description, total_sources,
		theory_count, practice_count, history_count, current_count, future_count
	FROM categories WHERE total_sources > 0 ORDER BY total_sources DESC, name`

	sqlHasCategory = `SELECT 1 FROM categories WHERE name = $1 OR display_name = $1 LIMIT 1`

	sqlStatsBreakdown = `SELECT authority_score, dimension, COUNT(*)
	FROM sources WHERE is_active = TRUE GROUP BY authority_score, dimension`

	sqlCountCategories = `SELECT COUNT(*) FROM categories WHERE total_sources > 0`

	sqlUpsertCategory = `INSERT INTO categories (name, display_name, description)
	VALUES ($1, $2, $3)
	ON CONFLICT (name) DO UPDATE SET
		display_name = EXCLUDED.display_name,
		description = EXCLUDED.description,
		updated_at = CURRENT_TIMESTAMP`

	sqlUpsertSource = `INSERT INTO sources (id, name, description, url, category_name, dimension,
		authority_score, quality_score, word_count, source_type, difficulty, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		url = EXCLUDED.url,
		category_name = EXCLUDED.category_name,
		dimension = EXCLUDED.dimension,
		authority_score = EXCLUDED.authority_score,
		quality_score = EXCLUDED.quality_score,
		word_count = EXCLUDED.word_count,
		source_type = EXCLUDED.source_type,
		difficulty = EXCLUDED.difficulty,
		is_active = EXCLUDED.is_active,
		updated_at = CURRENT_TIMESTAMP`

	sqlRefreshCounts = `UPDATE categories c SET
		total_sources  = COALESCE(agg.total, 0),
		theory_count   = COALESCE(agg.theory, 0),
		practice_count = COALESCE(agg.practice, 0),
		history_count  = COALESCE(agg.history, 0),
		current_count  = COALESCE(agg.current, 0),
		future_count   = COALESCE(agg.future, 0),
		updated_at     = CURRENT_TIMESTAMP
	FROM categories c2 LEFT JOIN (
		SELECT category_name,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE dimension = 'theory')   AS theory,
			COUNT(*) FILTER (WHERE dimension = 'practice') AS practice,
			COUNT(*) FILTER (WHERE dimension = 'history')  AS history,
			COUNT(*) FILTER (WHERE dimension = 'current')  AS current,
			COUNT(*) FILTER (WHERE dimension = 'future')   AS future
		FROM sources WHERE is_active = TRUE GROUP BY category_name
	) agg ON agg.category_name = c2.name
	WHERE c.name = c2.name`
)
