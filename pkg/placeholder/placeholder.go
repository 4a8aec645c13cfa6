// Package placeholder implements two-layer context support: content too
// large to keep inline is offloaded to the memory store and replaced with
// a compact reference, which can later be expanded back in place.
//
// Placeholder format:
//
//	[MemoryRef: <key> - <summary> - <n> tokens]
//
// Expansion format:
//
//	[Expanded Memory: <key>]
//	<content>
//	[End Memory]
package placeholder

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/recallkit/recall/pkg/memory"
)

// DefaultThreshold is the token estimate above which content is offloaded.
const DefaultThreshold = 1000

// OffloadType marks records created by the offloader.
const OffloadType = "context_offload"

const fallbackSummary = "large content"

var refPattern = regexp.MustCompile(`\[MemoryRef: ([a-f0-9\-]+) - (.*?) - \d+ tokens\]`)

// Store is the persistence surface the offloader needs. *memory.Store
// satisfies it.
type Store interface {
	Save(ctx context.Context, rec memory.Record) error
	Get(ctx context.Context, userID int64, memoryKey string) (*memory.Record, error)
}

// Summarizer condenses offloaded content for the placeholder. Implementations
// typically call an LLM; a nil summarizer falls back to a static summary.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// Ref is a parsed placeholder reference.
type Ref struct {
	Key     string
	Summary string
}

// Offloader moves oversized content into the store behind placeholders.
type Offloader struct {
	store      Store
	summarizer Summarizer
	threshold  int
	logger     zerolog.Logger
}

// Config holds offloader configuration.
type Config struct {
	Store      Store
	Summarizer Summarizer // optional
	Threshold  int        // token estimate threshold, default 1000
	Logger     zerolog.Logger
}

// New creates an offloader.
func New(cfg Config) (*Offloader, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Offloader{
		store:      cfg.Store,
		summarizer: cfg.Summarizer,
		threshold:  threshold,
		logger:     cfg.Logger,
	}, nil
}

// EstimateTokens approximates the token count of text as len/4.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// Offload stores content under a fresh key and returns the placeholder
// that stands in for it. Content at or under the threshold is returned
// unchanged with offloaded=false.
func (o *Offloader) Offload(ctx context.Context, userID int64, content string, metadata map[string]any) (string, bool, error) {
	tokens := EstimateTokens(content)
	if tokens <= o.threshold {
		return content, false, nil
	}

	key := uuid.NewString()
	summary := o.summarize(ctx, content)

	err := o.store.Save(ctx, memory.Record{
		UserID:     userID,
		MemoryKey:  key,
		MemoryType: OffloadType,
		Summary:    summary,
		Content:    content,
		Metadata:   metadata,
	})
	if err != nil {
		return "", false, fmt.Errorf("offload content: %w", err)
	}

	o.logger.Debug().
		Str("memory_key", key).
		Int("tokens", tokens).
		Msg("Content offloaded to memory")
	return fmt.Sprintf("[MemoryRef: %s - %s - %d tokens]", key, summary, tokens), true, nil
}

func (o *Offloader) summarize(ctx context.Context, content string) string {
	if o.summarizer == nil {
		return fallbackSummary
	}
	summary, err := o.summarizer.Summarize(ctx, content)
	if err != nil {
		o.logger.Warn().Err(err).Msg("Summarization failed, using fallback")
		return fallbackSummary
	}
	return sanitizeSummary(summary)
}

// sanitizeSummary keeps the placeholder single-line and parseable.
func sanitizeSummary(summary string) string {
	summary = strings.Join(strings.Fields(summary), " ")
	if summary == "" {
		return fallbackSummary
	}
	return summary
}

// Refs parses all placeholder references found in text, in order of
// appearance.
func Refs(text string) []Ref {
	matches := refPattern.FindAllStringSubmatch(text, -1)
	refs := make([]Ref, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, Ref{Key: m[1], Summary: m[2]})
	}
	return refs
}

// Expand replaces the placeholders for the given keys with their stored
// content. Keys whose records are missing leave the placeholder intact.
func (o *Offloader) Expand(ctx context.Context, userID int64, text string, keys []string) (string, error) {
	for _, key := range keys {
		if !strings.Contains(text, key) {
			continue
		}
		rec, err := o.store.Get(ctx, userID, key)
		if errors.Is(err, memory.ErrNotFound) {
			o.logger.Warn().Str("memory_key", key).Msg("Referenced memory missing, placeholder kept")
			continue
		}
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", key, err)
		}

		pattern, err := regexp.Compile(`\[MemoryRef: ` + regexp.QuoteMeta(key) + ` - .*? - \d+ tokens\]`)
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", key, err)
		}
		replacement := fmt.Sprintf("\n[Expanded Memory: %s]\n%s\n[End Memory]\n", key, rec.Content)
		text = pattern.ReplaceAllLiteralString(text, replacement)
	}
	return text, nil
}
