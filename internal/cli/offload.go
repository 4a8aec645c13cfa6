package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/recallkit/recall/pkg/placeholder"
)

var offloadFlags = struct {
	userID    int64
	threshold int
}{}

var offloadCmd = &cobra.Command{
	Use:   "offload",
	Short: "Offload large content behind a memory reference",
	Long: `Read content from stdin and, when it exceeds the token threshold,
store it and print a [MemoryRef: ...] placeholder instead. Content
under the threshold is printed unchanged.`,
	Args: cobra.NoArgs,
	RunE: runOffload,
}

var expandFlags = struct {
	userID int64
}{}

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Expand memory references back into content",
	Long: `Read text from stdin and replace every [MemoryRef: ...] placeholder
with the stored content it refers to.`,
	Args: cobra.NoArgs,
	RunE: runExpand,
}

func init() {
	offloadCmd.Flags().Int64Var(&offloadFlags.userID, "user", 0, "user id (required)")
	offloadCmd.Flags().IntVar(&offloadFlags.threshold, "threshold", placeholder.DefaultThreshold, "token estimate threshold")
	_ = offloadCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(offloadCmd)

	expandCmd.Flags().Int64Var(&expandFlags.userID, "user", 0, "user id (required)")
	_ = expandCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(expandCmd)
}

func runOffload(cmd *cobra.Command, args []string) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	offloader, err := placeholder.New(placeholder.Config{
		Store:     a.store,
		Threshold: offloadFlags.threshold,
		Logger:    a.log.Zerolog(),
	})
	if err != nil {
		return err
	}

	out, _, err := offloader.Offload(cmd.Context(), offloadFlags.userID, string(data), nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runExpand(cmd *cobra.Command, args []string) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read text: %w", err)
	}
	text := string(data)

	refs := placeholder.Refs(text)
	if len(refs) == 0 {
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	offloader, err := placeholder.New(placeholder.Config{
		Store:  a.store,
		Logger: a.log.Zerolog(),
	})
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(refs))
	for _, ref := range refs {
		keys = append(keys, ref.Key)
	}
	expanded, err := offloader.Expand(cmd.Context(), expandFlags.userID, text, keys)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), expanded)
	return nil
}
