package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Stats is the denormalized per-tier snapshot. It is a cache: a full
// recount is always authoritative, and every refresh simply overwrites
// the row from the record table.
type Stats struct {
	Total            int   `json:"total"`
	Hot              int   `json:"hot"`
	Warm             int   `json:"warm"`
	Cold             int   `json:"cold"`
	TotalAccessCount int64 `json:"total_access_count"`
	LastUpdate       int64 `json:"last_update"`
}

// GetStats reads the stats row.
func (db *DB) GetStats() (*Stats, error) {
	var s Stats
	err := db.QueryRow(`
		SELECT total, hot, warm, cold, total_access_count, last_update
		FROM memory_stats WHERE id = 1
	`).Scan(&s.Total, &s.Hot, &s.Warm, &s.Cold, &s.TotalAccessCount, &s.LastUpdate)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &s, nil
}

// RefreshStats recounts from the record table and overwrites the stats
// row in its own transaction.
func (db *DB) RefreshStats() error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin refresh stats: %w", err)
	}
	defer tx.Rollback()

	if err := refreshStatsTx(tx, time.Now().UnixMilli()); err != nil {
		return err
	}
	return tx.Commit()
}

// refreshStatsTx overwrites the stats row from a full recount, inside
// the caller's transaction so the snapshot commits atomically with the
// mutation that invalidated it.
func refreshStatsTx(tx *sql.Tx, now int64) error {
	_, err := tx.Exec(`
		UPDATE memory_stats SET
			total              = (SELECT COUNT(*) FROM memories),
			hot                = (SELECT COUNT(*) FROM memories WHERE storage_tier = 'hot'),
			warm               = (SELECT COUNT(*) FROM memories WHERE storage_tier = 'warm'),
			cold               = (SELECT COUNT(*) FROM memories WHERE storage_tier = 'cold'),
			total_access_count = (SELECT COALESCE(SUM(access_count), 0) FROM memories),
			last_update        = ?
		WHERE id = 1
	`, now)
	if err != nil {
		return fmt.Errorf("refresh stats: %w", err)
	}
	return nil
}
