package search

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/recallkit/recall/pkg/memory"
)

// RecordStore is the persistence contract the engine reads records through.
// memory.Store satisfies it.
type RecordStore interface {
	GetByKeys(ctx context.Context, userID int64, memoryKeys []string) ([]memory.Record, error)
	Filter(ctx context.Context, userID int64, memoryTypes []string, createdAfter time.Time) ([]memory.Record, error)
}

// KeywordIndex is the weighted keyword lookup contract. memory.Store
// satisfies it.
type KeywordIndex interface {
	Lookup(ctx context.Context, userID int64, keywords []string) (map[string]memory.KeywordHit, error)
}

// VectorIndex is the nearest-neighbour contract. memory.Store satisfies it.
type VectorIndex interface {
	SemanticCandidates(ctx context.Context, userID int64, vector []float32, limit int) ([]memory.VectorMatch, error)
}

// ScoredResult is the transient ranking artifact handed back to callers.
// It is rebuilt per search call and never persisted.
type ScoredResult struct {
	MemoryKey       string         `json:"memory_key"`
	Summary         string         `json:"summary,omitempty"`
	ContentPreview  string         `json:"content_preview"`
	MemoryType      string         `json:"memory_type"`
	Score           float64        `json:"relevance_score"`
	CreatedAt       time.Time      `json:"created_at"`
	MatchedKeywords []string       `json:"matched_keywords,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Response carries the ranked results plus degradation signals so callers
// can tell a partial hybrid success from a full one.
type Response struct {
	Results        []ScoredResult `json:"results"`
	Degraded       bool           `json:"degraded"`
	FailedBranches []string       `json:"failed_branches,omitempty"`
}

// previewLimit bounds the content excerpt carried in results.
const previewLimit = 200

func fromRecord(rec memory.Record, score float64, matched []string) ScoredResult {
	return ScoredResult{
		MemoryKey:       rec.MemoryKey,
		Summary:         rec.Summary,
		ContentPreview:  preview(rec.Content),
		MemoryType:      rec.MemoryType,
		Score:           clamp01(score),
		CreatedAt:       rec.CreatedAt,
		MatchedKeywords: matched,
		Metadata:        rec.Metadata,
	}
}

func preview(content string) string {
	if len(content) <= previewLimit {
		return content
	}
	cut := previewLimit
	// back up so the cut never splits a multi-byte rune
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "..."
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
