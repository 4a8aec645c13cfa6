package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recallkit/recall/pkg/search"
)

var searchFlags = struct {
	userID   int64
	mode     string
	limit    int
	minScore float64
	keywords []string
	types    []string
	days     int
}{}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search memories",
	Long: `Search a user's memories. The default hybrid mode fuses keyword and
semantic scores; keyword and semantic modes run a single branch.
Results are printed as JSON, ranked by relevance.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int64Var(&searchFlags.userID, "user", 0, "user id (required)")
	searchCmd.Flags().StringVar(&searchFlags.mode, "mode", string(search.ModeHybrid), "search mode (keyword, semantic, hybrid)")
	searchCmd.Flags().IntVar(&searchFlags.limit, "limit", search.DefaultLimit, "maximum results")
	searchCmd.Flags().Float64Var(&searchFlags.minScore, "min-score", search.DefaultMinScore, "relevance threshold in [0,1]")
	searchCmd.Flags().StringSliceVar(&searchFlags.keywords, "keyword", nil, "explicit keyword (repeatable, defaults to query tokens)")
	searchCmd.Flags().StringSliceVar(&searchFlags.types, "type", nil, "restrict to memory type (repeatable)")
	searchCmd.Flags().IntVar(&searchFlags.days, "days", 0, "restrict to memories created in the last N days")
	_ = searchCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.engine.Search(cmd.Context(), search.Params{
		UserID:        searchFlags.userID,
		Query:         args[0],
		Keywords:      searchFlags.keywords,
		MemoryTypes:   searchFlags.types,
		TimeRangeDays: searchFlags.days,
		MinScore:      searchFlags.minScore,
		Limit:         searchFlags.limit,
		Mode:          search.Mode(searchFlags.mode),
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
