package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	linkRel      string
	linkStrength float64
)

var linkCmd = &cobra.Command{
	Use:   "link <source-key> <target-key>",
	Short: "Create a directed relationship between two records",
	Args:  cobra.ExactArgs(2),
	RunE:  runLink,
}

func init() {
	linkCmd.Flags().StringVarP(&linkRel, "rel", "r", "related", "Relationship type")
	linkCmd.Flags().Float64VarP(&linkStrength, "strength", "s", 1.0, "Relationship strength")
}

func runLink(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	if err := eng.Link(args[0], args[1], linkRel, linkStrength); err != nil {
		return err
	}

	fmt.Printf("linked %s -[%s]-> %s\n", args[0], linkRel, args[1])
	return nil
}
