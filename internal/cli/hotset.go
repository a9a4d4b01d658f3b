package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var hotsetLimit int

var hotsetCmd = &cobra.Command{
	Use:   "hotset",
	Short: "Show the hot-set records used for session bootstrap",
	RunE:  runHotset,
}

func init() {
	hotsetCmd.Flags().IntVarP(&hotsetLimit, "limit", "l", 0, "Max records (default 300)")
}

func runHotset(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	records, err := eng.HotSet(hotsetLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("hot set is empty")
		return nil
	}

	for _, r := range records {
		fmt.Printf("%.3f  %s [%s] %s\n", r.RecencyScore, r.Key, r.Type, truncate(string(r.Value), 80))
	}
	return nil
}
