package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Rescore every record and reassign storage tiers",
	RunE:  runRebalance,
}

func runRebalance(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	changed, err := eng.Rebalance()
	if err != nil {
		return err
	}

	fmt.Printf("rebalanced: %d records moved tiers\n", changed)
	return nil
}
