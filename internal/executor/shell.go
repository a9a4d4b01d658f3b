package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Shell runs code as a script through a shell interpreter.
type Shell struct {
	shell   string
	timeout time.Duration
}

// NewShell creates a shell executor. An empty shell defaults to /bin/sh.
func NewShell(shell string, timeout time.Duration) *Shell {
	if shell == "" {
		shell = "/bin/sh"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Shell{shell: shell, timeout: timeout}
}

// Execute writes code to a temporary script and runs it. The script is
// removed afterwards. A deadline overrun reports TimedOut with exit
// code -1 rather than an error.
func (s *Shell) Execute(ctx context.Context, code string) (*Result, error) {
	path := filepath.Join(os.TempDir(), "engram-exec-"+uuid.NewString()+".sh")
	if err := os.WriteFile(path, []byte(code), 0o700); err != nil {
		return nil, fmt.Errorf("write script: %w", err)
	}
	defer os.Remove(path)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.shell, path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: elapsed,
	}

	if ctx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		return res, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, fmt.Errorf("run %s: %w", s.shell, err)
	}
	return res, nil
}
