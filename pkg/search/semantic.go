package search

import (
	"context"
	"fmt"

	"github.com/recallkit/recall/pkg/embedding"
)

// SemanticSearcher ranks memories by vector similarity to the query.
type SemanticSearcher struct {
	vectors VectorIndex
	store   RecordStore
	gateway embedding.Gateway
}

// NewSemanticSearcher creates a semantic searcher.
func NewSemanticSearcher(vectors VectorIndex, store RecordStore, gateway embedding.Gateway) *SemanticSearcher {
	return &SemanticSearcher{vectors: vectors, store: store, gateway: gateway}
}

// Search embeds the query and ranks the user's memories by cosine
// similarity. Records without an embedding never appear; they are excluded
// at the index, not scored as zero. Gateway failures propagate to the
// caller, which decides whether to degrade.
func (s *SemanticSearcher) Search(ctx context.Context, userID int64, query string, limit int, minScore float64) ([]ScoredResult, error) {
	if s.gateway == nil {
		return nil, fmt.Errorf("no embedding gateway configured: %w", embedding.ErrUnavailable)
	}

	queryVector, err := s.gateway.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.vectors.SemanticCandidates(ctx, userID, queryVector, limit)
	if err != nil {
		return nil, fmt.Errorf("vector candidates: %w", err)
	}

	type scored struct {
		key        string
		similarity float64
	}
	passing := make([]scored, 0, len(matches))
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		// cosine distance is in [0,2]; similarity in [-1,1]
		similarity := 1.0 - m.Distance
		if similarity < minScore {
			continue
		}
		passing = append(passing, scored{key: m.MemoryKey, similarity: similarity})
		keys = append(keys, m.MemoryKey)
	}
	if len(passing) == 0 {
		return []ScoredResult{}, nil
	}

	records, err := s.store.GetByKeys(ctx, userID, keys)
	if err != nil {
		return nil, fmt.Errorf("hydrate semantic candidates: %w", err)
	}
	byKey := make(map[string]int, len(records))
	for i, rec := range records {
		byKey[rec.MemoryKey] = i
	}

	results := make([]ScoredResult, 0, len(passing))
	for _, p := range passing {
		idx, ok := byKey[p.key]
		if !ok {
			continue
		}
		results = append(results, fromRecord(records[idx], p.similarity, nil))
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
