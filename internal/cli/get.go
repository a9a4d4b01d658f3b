package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Look up a memory by key",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	rec := eng.Get(args[0])
	if rec == nil {
		return fmt.Errorf("not found: %s", args[0])
	}

	b, _ := json.MarshalIndent(rec, "", "  ")
	fmt.Println(string(b))
	return nil
}
