package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "memories: tiered key-value memory records",
		SQL: `
CREATE TABLE memories (
    id           INTEGER PRIMARY KEY,
    key          TEXT NOT NULL UNIQUE,
    value        TEXT NOT NULL,
    type         TEXT NOT NULL DEFAULT 'general',
    storage_tier TEXT NOT NULL DEFAULT 'warm' CHECK (storage_tier IN ('hot', 'warm', 'cold')),
    access_count INTEGER NOT NULL DEFAULT 0,
    metadata     TEXT,
    checksum     TEXT NOT NULL,
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL,
    accessed_at  INTEGER NOT NULL
);

CREATE INDEX idx_memories_tier     ON memories(storage_tier);
CREATE INDEX idx_memories_accessed ON memories(accessed_at DESC);
CREATE INDEX idx_memories_type     ON memories(type);
`,
	},
	{
		Version:     2,
		Description: "memories_fts: full-text index over key, value, type",
		SQL: `
CREATE VIRTUAL TABLE memories_fts USING fts5(
    key,
    value,
    type,
    content=memories,
    content_rowid=id
);

CREATE TRIGGER memories_ai AFTER INSERT ON memories BEGIN
    INSERT INTO memories_fts(rowid, key, value, type)
    VALUES (new.id, new.key, new.value, new.type);
END;

CREATE TRIGGER memories_ad AFTER DELETE ON memories BEGIN
    INSERT INTO memories_fts(memories_fts, rowid, key, value, type)
    VALUES ('delete', old.id, old.key, old.value, old.type);
END;

CREATE TRIGGER memories_au AFTER UPDATE ON memories BEGIN
    INSERT INTO memories_fts(memories_fts, rowid, key, value, type)
    VALUES ('delete', old.id, old.key, old.value, old.type);
    INSERT INTO memories_fts(rowid, key, value, type)
    VALUES (new.id, new.key, new.value, new.type);
END;
`,
	},
	{
		Version:     3,
		Description: "memory_links: directed typed edges between records",
		SQL: `
CREATE TABLE memory_links (
    source_key TEXT NOT NULL REFERENCES memories(key) ON DELETE CASCADE,
    target_key TEXT NOT NULL REFERENCES memories(key) ON DELETE CASCADE,
    rel        TEXT NOT NULL,
    strength   REAL NOT NULL DEFAULT 1.0,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (source_key, target_key, rel)
);

CREATE INDEX idx_links_target ON memory_links(target_key);
`,
	},
	{
		Version:     4,
		Description: "memory_stats: denormalized per-tier counts",
		SQL: `
CREATE TABLE memory_stats (
    id                 INTEGER PRIMARY KEY CHECK (id = 1),
    total              INTEGER NOT NULL DEFAULT 0,
    hot                INTEGER NOT NULL DEFAULT 0,
    warm               INTEGER NOT NULL DEFAULT 0,
    cold               INTEGER NOT NULL DEFAULT 0,
    total_access_count INTEGER NOT NULL DEFAULT 0,
    last_update        INTEGER NOT NULL DEFAULT 0
);

INSERT INTO memory_stats (id) VALUES (1);
`,
	},
	{
		Version:     5,
		Description: "executions: code execution side-channel log",
		SQL: `
CREATE TABLE executions (
    id          TEXT PRIMARY KEY,
    code        TEXT NOT NULL,
    stdout      TEXT,
    stderr      TEXT,
    exit_code   INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    status      TEXT NOT NULL DEFAULT 'completed' CHECK (status IN ('completed', 'failed', 'timeout')),
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_executions_created ON executions(created_at DESC);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
