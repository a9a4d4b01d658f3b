package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Link is a directed, typed edge between two records. At most one edge
// exists per (source, target, rel) triple; deleting a record cascades to
// its incident edges.
type Link struct {
	SourceKey string  `json:"source_key"`
	TargetKey string  `json:"target_key"`
	Rel       string  `json:"rel"`
	Strength  float64 `json:"strength"`
	CreatedAt int64   `json:"created_at"`
}

// UpsertLink creates or updates the edge (source, target, rel). Both
// endpoints must exist; a missing endpoint surfaces as ErrNotFound.
func (db *DB) UpsertLink(source, target, rel string, strength float64) error {
	for _, key := range []string{source, target} {
		var exists int
		err := db.QueryRow(`SELECT 1 FROM memories WHERE key = ?`, key).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("link endpoint %q: %w", key, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("check link endpoint %q: %w", key, err)
		}
	}

	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO memory_links (source_key, target_key, rel, strength, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_key, target_key, rel) DO UPDATE SET strength = excluded.strength
	`, source, target, rel, strength, now)
	if err != nil {
		return fmt.Errorf("upsert link %s -> %s: %w", source, target, err)
	}
	return nil
}

// LinksFrom returns all outgoing edges of a record.
func (db *DB) LinksFrom(source string) ([]Link, error) {
	return db.queryLinks(`
		SELECT source_key, target_key, rel, strength, created_at
		FROM memory_links WHERE source_key = ?
		ORDER BY strength DESC, target_key
	`, source)
}

// LinksTo returns all incoming edges of a record.
func (db *DB) LinksTo(target string) ([]Link, error) {
	return db.queryLinks(`
		SELECT source_key, target_key, rel, strength, created_at
		FROM memory_links WHERE target_key = ?
		ORDER BY strength DESC, source_key
	`, target)
}

func (db *DB) queryLinks(query string, arg string) ([]Link, error) {
	rows, err := db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.SourceKey, &l.TargetKey, &l.Rel, &l.Strength, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
