package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Storage tiers. Every record carries exactly one of these; the tier is
// derived by the engine's rebalance pass, never set directly by callers.
const (
	TierHot  = "hot"
	TierWarm = "warm"
	TierCold = "cold"
)

// ErrNotFound is returned by operations that require an existing record.
var ErrNotFound = errors.New("record not found")

// Record is one key-value memory entry with tiering and access metadata.
type Record struct {
	ID          int64           `json:"id"`
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Type        string          `json:"type"`
	StorageTier string          `json:"storage_tier"`
	AccessCount int             `json:"access_count"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	Checksum    string          `json:"checksum"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
	AccessedAt  int64           `json:"accessed_at"`
}

// Checksum returns the hex SHA-256 digest of a serialized value.
// Deterministic: the same input always yields the same digest.
func Checksum(value []byte) string {
	sum := sha256.Sum256(value)
	return hex.EncodeToString(sum[:])
}

// UpsertRecord writes or replaces the record for key. Re-storing an
// existing key counts as a usage signal: access_count is incremented and
// accessed_at refreshed along with the content update. updated_at moves
// only when the content actually changed (checksum or type differs); an
// identical re-store touches access metadata alone. The FTS index is
// maintained by triggers inside the same transaction, and the stats row
// is refreshed before commit.
//
// initialTier applies only when the key does not exist yet; an existing
// record keeps its last-computed tier until the next rebalance.
func (db *DB) UpsertRecord(key string, value []byte, typ string, metadata []byte, initialTier string) (*Record, error) {
	now := time.Now().UnixMilli()
	checksum := Checksum(value)

	var metaArg any
	if len(metadata) > 0 {
		metaArg = string(metadata)
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO memories (key, value, type, storage_tier, access_count, metadata, checksum, created_at, updated_at, accessed_at)
		VALUES (?, ?, ?, ?, 1, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value        = excluded.value,
			type         = excluded.type,
			metadata     = excluded.metadata,
			checksum     = excluded.checksum,
			access_count = access_count + 1,
			updated_at   = CASE
				WHEN checksum != excluded.checksum OR type != excluded.type
				THEN excluded.updated_at ELSE updated_at END,
			accessed_at  = excluded.accessed_at
	`, key, string(value), typ, initialTier, metaArg, checksum, now, now, now)
	if err != nil {
		return nil, fmt.Errorf("upsert record %q: %w", key, err)
	}

	rec, err := scanRecordRow(tx.QueryRow(selectRecord+" WHERE key = ?", key))
	if err != nil {
		return nil, fmt.Errorf("read back record %q: %w", key, err)
	}

	if err := refreshStatsTx(tx, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert %q: %w", key, err)
	}
	return rec, nil
}

// GetRecord returns the record for key, or nil if absent. The read is a
// usage signal: access_count and accessed_at are updated in the same
// transaction as the lookup, and the returned record reflects them.
func (db *DB) GetRecord(key string) (*Record, error) {
	now := time.Now().UnixMilli()

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin get: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE memories SET access_count = access_count + 1, accessed_at = ?
		WHERE key = ?
	`, now, key)
	if err != nil {
		return nil, fmt.Errorf("touch record %q: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	rec, err := scanRecordRow(tx.QueryRow(selectRecord+" WHERE key = ?", key))
	if err != nil {
		return nil, fmt.Errorf("get record %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit get %q: %w", key, err)
	}
	return rec, nil
}

// PeekRecord returns the record for key without updating access metadata,
// or nil if absent. Used by integrity verification.
func (db *DB) PeekRecord(key string) (*Record, error) {
	rec, err := scanRecordRow(db.QueryRow(selectRecord+" WHERE key = ?", key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("peek record %q: %w", key, err)
	}
	return rec, nil
}

// VerifyRecord recomputes the checksum of the stored value and compares
// it to the stored digest. Returns ErrNotFound for an absent key.
func (db *DB) VerifyRecord(key string) (bool, error) {
	rec, err := db.PeekRecord(key)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, ErrNotFound
	}
	return Checksum(rec.Value) == rec.Checksum, nil
}

// TopByTier returns up to limit records in the given tier, ordered for
// hot-set retrieval: pinned types first, in the order given, then most
// recently accessed, then most accessed. The pinned list is the same one
// the tiering score uses, so ordering and scoring never disagree about
// what is pinned.
func (db *DB) TopByTier(tier string, pinned []string, limit int) ([]Record, error) {
	args := []any{tier}

	// A bare integer in ORDER BY is a column position in SQLite, so the
	// constant rank must be written as an expression.
	typeOrder := "CAST(" + strconv.Itoa(len(pinned)) + " AS INTEGER)"
	if len(pinned) > 0 {
		var b strings.Builder
		b.WriteString("CASE type")
		for i, p := range pinned {
			b.WriteString(" WHEN ? THEN ")
			b.WriteString(strconv.Itoa(i))
			args = append(args, p)
		}
		b.WriteString(" ELSE ")
		b.WriteString(strconv.Itoa(len(pinned)))
		b.WriteString(" END")
		typeOrder = b.String()
	}
	args = append(args, limit)

	rows, err := db.Query(selectRecord+`
		WHERE storage_tier = ?
		ORDER BY `+typeOrder+`,
			accessed_at DESC,
			access_count DESC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("top by tier %q: %w", tier, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// TierInput is the per-record slice of state the scoring function needs.
type TierInput struct {
	ID          int64
	Type        string
	StorageTier string
	AccessCount int
	AccessedAt  int64
}

// AllForScoring returns scoring inputs for every record.
func (db *DB) AllForScoring() ([]TierInput, error) {
	rows, err := db.Query(`
		SELECT id, type, storage_tier, access_count, accessed_at FROM memories
	`)
	if err != nil {
		return nil, fmt.Errorf("scan for scoring: %w", err)
	}
	defer rows.Close()

	var inputs []TierInput
	for rows.Next() {
		var in TierInput
		if err := rows.Scan(&in.ID, &in.Type, &in.StorageTier, &in.AccessCount, &in.AccessedAt); err != nil {
			return nil, fmt.Errorf("scan tier input: %w", err)
		}
		inputs = append(inputs, in)
	}
	return inputs, rows.Err()
}

// ApplyTiers writes a full set of tier assignments in one transaction and
// refreshes the stats row before commit. Readers observe either the old
// tiers or the new ones, never a mix. Returns the number of records whose
// tier changed.
func (db *DB) ApplyTiers(assignments map[int64]string) (int, error) {
	now := time.Now().UnixMilli()

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin apply tiers: %w", err)
	}
	defer tx.Rollback()

	changed := 0
	for id, tier := range assignments {
		res, err := tx.Exec(`
			UPDATE memories SET storage_tier = ? WHERE id = ? AND storage_tier != ?
		`, tier, id, tier)
		if err != nil {
			return 0, fmt.Errorf("apply tier for record %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			changed++
		}
	}

	if err := refreshStatsTx(tx, now); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit apply tiers: %w", err)
	}
	return changed, nil
}

const selectRecord = `
	SELECT id, key, value, type, storage_tier, access_count, metadata, checksum, created_at, updated_at, accessed_at
	FROM memories`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecordRow(row rowScanner) (*Record, error) {
	var r Record
	var value string
	var metadata sql.NullString
	err := row.Scan(&r.ID, &r.Key, &value, &r.Type, &r.StorageTier, &r.AccessCount,
		&metadata, &r.Checksum, &r.CreatedAt, &r.UpdatedAt, &r.AccessedAt)
	if err != nil {
		return nil, err
	}
	r.Value = json.RawMessage(value)
	if metadata.Valid {
		r.Metadata = json.RawMessage(metadata.String)
	}
	return &r, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		rec, err := scanRecordRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
