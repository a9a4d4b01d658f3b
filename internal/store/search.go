package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SearchHit is one full-text match with its base relevance rank.
// Rank is normalized so that higher is better.
type SearchHit struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Type        string          `json:"type"`
	StorageTier string          `json:"storage_tier"`
	AccessCount int             `json:"access_count"`
	Rank        float64         `json:"rank"`
}

// SearchText runs a full-text query over key, value, and type. Only hot
// and warm records are searchable; cold records are archived out of the
// default search path. Results are ordered best-first by bm25.
//
// The query is sanitized before matching so FTS5 operator syntax in user
// input can never break the statement. An empty query after sanitization
// returns no results.
func (db *DB) SearchText(query string, limit int) ([]SearchHit, error) {
	match := escapeFTSQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := db.Query(`
		SELECT m.key, m.value, m.type, m.storage_tier, m.access_count, bm25(memories_fts)
		FROM memories_fts
		JOIN memories m ON m.id = memories_fts.rowid
		WHERE memories_fts MATCH ?
		  AND m.storage_tier IN (?, ?)
		ORDER BY bm25(memories_fts)
		LIMIT ?
	`, match, TierHot, TierWarm, limit)
	if err != nil {
		return nil, fmt.Errorf("fts search %q: %w", query, err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		var value string
		var bm25 float64
		if err := rows.Scan(&h.Key, &value, &h.Type, &h.StorageTier, &h.AccessCount, &bm25); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		h.Value = json.RawMessage(value)
		// bm25 is lower-is-better; flip the sign so rank sorts naturally.
		h.Rank = -bm25
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// escapeFTSQuery neutralizes FTS5 syntax by quoting every whitespace
// token and doubling embedded double quotes. "AND", "*", "(" and friends
// become plain terms.
func escapeFTSQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, `""`)
		quoted = append(quoted, `"`+f+`"`)
	}
	return strings.Join(quoted, " ")
}

// RebuildSearchIndex drops and repopulates the FTS index from the record
// table. Recovery tool for a corrupted index; normal maintenance happens
// through triggers.
func (db *DB) RebuildSearchIndex() error {
	if _, err := db.Exec(`INSERT INTO memories_fts(memories_fts) VALUES ('rebuild')`); err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}
	return nil
}
