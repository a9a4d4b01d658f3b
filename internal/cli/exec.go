package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/engramlabs/engram/internal/config"
	"github.com/engramlabs/engram/internal/executor"
	"github.com/engramlabs/engram/internal/store"
)

var execCmd = &cobra.Command{
	Use:   "exec [code]",
	Short: "Run code through the execution side channel and log the result",
	Long:  "Execute a shell snippet, record stdout/stderr/exit code in the execution log, and print the output.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExec,
}

func runExec(cmd *cobra.Command, args []string) error {
	var code string
	if len(args) > 0 {
		code = args[0]
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			code = string(b)
		}
	}
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("code required (positional arg or stdin)")
	}

	cfg := config.Default()
	shell := executor.NewShell(cfg.Executor.Shell, time.Duration(cfg.Executor.Timeout)*time.Second)

	res, err := shell.Execute(cmd.Context(), code)
	if err != nil {
		return err
	}

	_, db, err := openEngine()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	status := store.ExecCompleted
	if res.TimedOut {
		status = store.ExecTimeout
	} else if res.ExitCode != 0 {
		status = store.ExecFailed
	}

	entry := &store.Execution{
		Code:       code,
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		ExitCode:   res.ExitCode,
		DurationMS: res.Duration.Milliseconds(),
		Status:     status,
	}
	if err := db.InsertExecution(entry); err != nil {
		return fmt.Errorf("record execution: %w", err)
	}

	if res.Stdout != "" {
		fmt.Print(res.Stdout)
	}
	if res.Stderr != "" {
		fmt.Fprint(os.Stderr, res.Stderr)
	}
	fmt.Fprintf(os.Stderr, "[%s] %s in %dms (exit %d)\n", entry.ID, status, entry.DurationMS, res.ExitCode)
	return nil
}
