package search

import (
	"context"
	"fmt"
	"sort"
)

// Keyword score formula constants: weighted importance plus breadth of
// coverage, capped at 1.0.
const (
	keywordWeightFactor = 0.3
	keywordCountFactor  = 0.2
)

// KeywordSearcher ranks memories purely by keyword overlap.
type KeywordSearcher struct {
	index KeywordIndex
	store RecordStore
}

// NewKeywordSearcher creates a keyword searcher.
func NewKeywordSearcher(index KeywordIndex, store RecordStore) *KeywordSearcher {
	return &KeywordSearcher{index: index, store: store}
}

// Search scores the user's memories against the keyword set. Memories with
// no matching association simply do not appear; an empty keyword set yields
// an empty result, not an error.
func (s *KeywordSearcher) Search(ctx context.Context, userID int64, keywords []string, limit int, minScore float64) ([]ScoredResult, error) {
	hits, err := s.index.Lookup(ctx, userID, keywords)
	if err != nil {
		return nil, fmt.Errorf("keyword lookup: %w", err)
	}
	if len(hits) == 0 {
		return []ScoredResult{}, nil
	}

	keys := make([]string, 0, len(hits))
	for key := range hits {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records, err := s.store.GetByKeys(ctx, userID, keys)
	if err != nil {
		return nil, fmt.Errorf("hydrate keyword candidates: %w", err)
	}

	results := make([]ScoredResult, 0, len(records))
	for _, rec := range records {
		hit := hits[rec.MemoryKey]
		score := hit.TotalWeight*keywordWeightFactor + float64(hit.MatchCount)*keywordCountFactor
		if score > 1.0 {
			score = 1.0
		}
		if score < minScore {
			continue
		}
		results = append(results, fromRecord(rec, score, hit.Matched))
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// sortResults orders by score descending, then created_at descending
// (newer first), then memory key for a stable total order.
func sortResults(results []ScoredResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].MemoryKey < results[j].MemoryKey
	})
}
