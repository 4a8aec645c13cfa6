package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/cobra"

	"github.com/recallkit/recall/pkg/memory"
)

var putFlags = struct {
	userID     int64
	memoryKey  string
	memoryType string
	summary    string
	keywords   []string
	embed      bool
}{}

var putCmd = &cobra.Command{
	Use:   "put [content]",
	Short: "Store a memory record",
	Long: `Store a memory record for a user. Content is taken from the argument
or from stdin when the argument is omitted. Keywords are given as
term=weight pairs with weights in [0,1].`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPut,
}

func init() {
	putCmd.Flags().Int64Var(&putFlags.userID, "user", 0, "user id (required)")
	putCmd.Flags().StringVar(&putFlags.memoryKey, "key", "", "memory key (generated when omitted)")
	putCmd.Flags().StringVar(&putFlags.memoryType, "type", memory.DefaultMemoryType, "memory type")
	putCmd.Flags().StringVar(&putFlags.summary, "summary", "", "short summary")
	putCmd.Flags().StringSliceVar(&putFlags.keywords, "keyword", nil, "keyword association as term=weight (repeatable)")
	putCmd.Flags().BoolVar(&putFlags.embed, "embed", true, "generate and store an embedding")
	_ = putCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(putCmd)
}

func runPut(cmd *cobra.Command, args []string) error {
	content, err := readContent(cmd, args)
	if err != nil {
		return err
	}

	keywords, err := parseKeywords(putFlags.keywords)
	if err != nil {
		return err
	}

	memoryKey := putFlags.memoryKey
	if memoryKey == "" {
		memoryKey, err = gonanoid.New()
		if err != nil {
			return fmt.Errorf("generate memory key: %w", err)
		}
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rec := memory.Record{
		UserID:     putFlags.userID,
		MemoryKey:  memoryKey,
		MemoryType: putFlags.memoryType,
		Summary:    putFlags.summary,
		Content:    content,
		Keywords:   keywords,
	}

	if putFlags.embed && a.gateway != nil {
		vector, err := a.gateway.Embed(cmd.Context(), content)
		if err != nil {
			// the janitor backfills missing vectors later
			zl := a.log.Zerolog()
			zl.Warn().Err(err).Msg("Embedding failed, record stored without vector")
		} else {
			rec.Embedding = vector
		}
	}

	if err := a.store.Save(cmd.Context(), rec); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), memoryKey)
	return nil
}

func readContent(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", fmt.Errorf("content is required")
	}
	return content, nil
}

func parseKeywords(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	keywords := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		term, weightStr, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid keyword %q, expected term=weight", pair)
		}
		weight, err := strconv.ParseFloat(weightStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid keyword weight in %q: %w", pair, err)
		}
		keywords[strings.TrimSpace(term)] = weight
	}
	return keywords, nil
}
