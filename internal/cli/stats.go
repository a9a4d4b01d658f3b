package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show tier counts and access totals",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	stats, err := eng.Stats()
	if err != nil {
		return err
	}

	b, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(b))
	return nil
}
