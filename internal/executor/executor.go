// Package executor runs caller-supplied code in a subprocess and
// reports stdout, stderr, exit code, and wall time. The engine treats it
// as a pluggable collaborator behind the Executor interface.
package executor

import (
	"context"
	"time"
)

// Result is the outcome of one execution. A nonzero exit code is a
// successful execution of failing code, not an executor error.
type Result struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out"`
}

// Executor executes a snippet of code.
type Executor interface {
	Execute(ctx context.Context, code string) (*Result, error)
}
