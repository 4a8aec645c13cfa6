package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deactivateUserID int64

var deactivateCmd = &cobra.Command{
	Use:   "deactivate <memory-key>",
	Short: "Soft-delete a memory record",
	Long: `Mark a memory record inactive. Deactivated records are excluded from
search and reads but their rows are retained.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeactivate,
}

func init() {
	deactivateCmd.Flags().Int64Var(&deactivateUserID, "user", 0, "user id (required)")
	_ = deactivateCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(deactivateCmd)
}

func runDeactivate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.Deactivate(cmd.Context(), deactivateUserID, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deactivated %s\n", args[0])
	return nil
}
