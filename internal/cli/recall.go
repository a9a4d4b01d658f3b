package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var recallLimit int

var recallCmd = &cobra.Command{
	Use:   "recall <query...>",
	Short: "Full-text search over hot and warm memories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRecall,
}

func init() {
	recallCmd.Flags().IntVarP(&recallLimit, "limit", "l", 0, "Max results (default 10)")
}

func runRecall(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	results := eng.Recall(strings.Join(args, " "), recallLimit)
	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}

	for _, r := range results {
		fmt.Printf("%.3f  %s [%s] %s\n", r.Score, r.Key, r.Type, truncate(string(r.Value), 80))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
