package search

import (
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search runs plainto_tsquery over the notes fts column, owner-scoped, with
// ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	const query = `
		SELECT n.id, n.title,
			ts_headline('english', coalesce(n.content, ''), plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30') AS snippet,
			COUNT(*) OVER () AS total
		FROM notes n
		WHERE n.owner_id = $2 AND n.fts @@ plainto_tsquery('english', $1)
		ORDER BY ts_rank(n.fts, plainto_tsquery('english', $1)) DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := p.db.Query(query, q.Text, q.OwnerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts search: %w", err)
	}
	defer rows.Close()

	var results []Result
	total := 0
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet, &total); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgfts rows: %w", err)
	}
	return results, total, nil
}
