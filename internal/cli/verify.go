package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/engramlabs/engram/internal/store"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <key>",
	Short: "Verify a record's stored checksum",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	valid, err := eng.Verify(args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("not found: %s", args[0])
	}
	if err != nil {
		return err
	}

	if valid {
		fmt.Printf("%s: checksum ok\n", args[0])
		return nil
	}
	return fmt.Errorf("%s: checksum mismatch, value corrupted", args[0])
}
