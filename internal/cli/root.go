// Package cli implements the engram CLI commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/engramlabs/engram/internal/config"
	"github.com/engramlabs/engram/internal/engine"
	"github.com/engramlabs/engram/internal/store"
)

var dbFlag string

var rootCmd = &cobra.Command{
	Use:   "engram",
	Short: "Tiered memory store for AI assistants",
	Long:  "Engram stores assistant memories in SQLite with hot/warm/cold tiering, full-text recall, and a code-execution side channel. Single binary.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Database path (default: $ENGRAM_DB or ~/.engram/engram.db)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rememberCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(hotsetCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(rebalanceCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(execCmd)
}

func resolveDBPath() (string, error) {
	if dbFlag != "" {
		return dbFlag, nil
	}
	if env := os.Getenv("ENGRAM_DB"); env != "" {
		return env, nil
	}
	return store.DefaultDBPath()
}

// openEngine opens the store and wraps it in an engine with default
// configuration. Caller closes the returned DB.
func openEngine() (*engine.Engine, *store.DB, error) {
	path, err := resolveDBPath()
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return engine.New(db, config.Default()), db, nil
}
