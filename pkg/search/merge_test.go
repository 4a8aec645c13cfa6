package search

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoredFor(key string, score float64, keywords ...string) ScoredResult {
	return ScoredResult{
		MemoryKey:       key,
		Score:           score,
		CreatedAt:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		MatchedKeywords: keywords,
	}
}

func TestMerge_BothSourcesWeightedSum(t *testing.T) {
	semantic := []ScoredResult{scoredFor("y", 0.8)}
	keyword := []ScoredResult{scoredFor("y", 0.6, "mysql")}

	merged := Merge(semantic, keyword, 0.6, 0.4)

	require.Len(t, merged, 1)
	assert.Equal(t, "y", merged[0].MemoryKey)
	assert.InDelta(t, 0.72, merged[0].Score, 1e-9)
	assert.Equal(t, []string{"mysql"}, merged[0].MatchedKeywords)
}

func TestMerge_SingleSourcePenalty(t *testing.T) {
	keyword := []ScoredResult{scoredFor("z", 0.9, "config")}

	merged := Merge(nil, keyword, 0.6, 0.4)

	require.Len(t, merged, 1)
	assert.InDelta(t, 0.63, merged[0].Score, 1e-9)
}

func TestMerge_Completeness(t *testing.T) {
	semantic := []ScoredResult{scoredFor("a", 0.9), scoredFor("b", 0.7)}
	keyword := []ScoredResult{scoredFor("b", 0.5), scoredFor("c", 0.8)}

	merged := Merge(semantic, keyword, 0.6, 0.4)

	keys := make([]string, 0, len(merged))
	for _, r := range merged {
		keys = append(keys, r.MemoryKey)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestMerge_KeywordUnion(t *testing.T) {
	semantic := []ScoredResult{scoredFor("k", 0.8, "redis")}
	keyword := []ScoredResult{scoredFor("k", 0.5, "cache", "redis")}

	merged := Merge(semantic, keyword, 0.6, 0.4)

	require.Len(t, merged, 1)
	assert.Equal(t, []string{"cache", "redis"}, merged[0].MatchedKeywords)
}

func TestMerge_SemanticFieldsPreferred(t *testing.T) {
	sem := scoredFor("m", 0.8)
	sem.Summary = "semantic summary"
	sem.Metadata = map[string]any{"source": "semantic"}
	kw := scoredFor("m", 0.6)
	kw.Summary = "keyword summary"

	merged := Merge([]ScoredResult{sem}, []ScoredResult{kw}, 0.6, 0.4)

	require.Len(t, merged, 1)
	assert.Equal(t, "semantic summary", merged[0].Summary)
	assert.Equal(t, "semantic", merged[0].Metadata["source"])
}

func TestMerge_ScoreClamped(t *testing.T) {
	semantic := []ScoredResult{scoredFor("h", 1.0)}
	keyword := []ScoredResult{scoredFor("h", 1.0)}

	merged := Merge(semantic, keyword, 0.9, 0.9)

	require.Len(t, merged, 1)
	assert.Equal(t, 1.0, merged[0].Score)
}

func TestMerge_EmptyInputs(t *testing.T) {
	assert.Empty(t, Merge(nil, nil, 0.6, 0.4))
}
