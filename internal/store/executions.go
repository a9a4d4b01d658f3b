package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Execution statuses.
const (
	ExecCompleted = "completed"
	ExecFailed    = "failed"
	ExecTimeout   = "timeout"
)

// Execution is one recorded run of the code-execution side channel.
type Execution struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"created_at"`
}

// InsertExecution records a completed execution. A missing ID gets a
// fresh ULID so the log stays sortable by creation order.
func (db *DB) InsertExecution(e *Execution) error {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().UnixMilli()
	}
	_, err := db.Exec(`
		INSERT INTO executions (id, code, stdout, stderr, exit_code, duration_ms, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Code, e.Stdout, e.Stderr, e.ExitCode, e.DurationMS, e.Status, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert execution %s: %w", e.ID, err)
	}
	return nil
}

// GetExecution returns one execution by ID, or nil if absent.
func (db *DB) GetExecution(id string) (*Execution, error) {
	var e Execution
	err := db.QueryRow(`
		SELECT id, code, stdout, stderr, exit_code, duration_ms, status, created_at
		FROM executions WHERE id = ?
	`, id).Scan(&e.ID, &e.Code, &e.Stdout, &e.Stderr, &e.ExitCode, &e.DurationMS, &e.Status, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get execution %s: %w", id, err)
	}
	return &e, nil
}

// RecentExecutions returns the most recent executions, newest first.
func (db *DB) RecentExecutions(limit int) ([]Execution, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, code, stdout, stderr, exit_code, duration_ms, status, created_at
		FROM executions ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent executions: %w", err)
	}
	defer rows.Close()

	var execs []Execution
	for rows.Next() {
		var e Execution
		if err := rows.Scan(&e.ID, &e.Code, &e.Stdout, &e.Stderr, &e.ExitCode, &e.DurationMS, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		execs = append(execs, e)
	}
	return execs, rows.Err()
}
