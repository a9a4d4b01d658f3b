package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	rememberType string
	rememberMeta string
)

var rememberCmd = &cobra.Command{
	Use:   "remember <key> [value]",
	Short: "Store a memory (upsert)",
	Long:  "Store a memory under a key. The value can be a positional arg or piped via stdin. Non-JSON values are stored as JSON strings.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runRemember,
}

func init() {
	rememberCmd.Flags().StringVarP(&rememberType, "type", "t", "", "Record type (e.g. user_preferences)")
	rememberCmd.Flags().StringVarP(&rememberMeta, "meta", "m", "", "JSON metadata")
}

func runRemember(cmd *cobra.Command, args []string) error {
	key := args[0]

	var raw string
	if len(args) > 1 {
		raw = args[1]
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			raw = string(b)
		}
	}
	if raw == "" {
		return fmt.Errorf("value required (positional arg or stdin)")
	}

	// Accept either a JSON value or a bare string.
	value := json.RawMessage(raw)
	if !json.Valid(value) {
		quoted, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("encode value: %w", err)
		}
		value = quoted
	}

	var meta json.RawMessage
	if rememberMeta != "" {
		meta = json.RawMessage(rememberMeta)
	}

	eng, db, err := openEngine()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	rec, err := eng.Remember(key, value, rememberType, meta)
	if err != nil {
		return err
	}

	fmt.Printf("stored %s [%s] tier=%s accesses=%d\n", rec.Key, rec.Type, rec.StorageTier, rec.AccessCount)
	return nil
}
