package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var getUserID int64

var getCmd = &cobra.Command{
	Use:   "get <memory-key>",
	Short: "Fetch a memory record by key",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	getCmd.Flags().Int64Var(&getUserID, "user", 0, "user id (required)")
	_ = getCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.store.Get(cmd.Context(), getUserID, args[0])
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
