package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetKeywords(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Record{UserID: 1, MemoryKey: "k", Content: "c"}))
	require.NoError(t, store.SetKeywords(ctx, 1, "k", map[string]float64{
		"MySQL ": 0.9,
		"config": 0.5,
		"  ":     0.1,
	}))

	keywords, err := store.KeywordsFor(ctx, 1, "k")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"mysql": 0.9, "config": 0.5}, keywords)

	// replacement, not merge
	require.NoError(t, store.SetKeywords(ctx, 1, "k", map[string]float64{"fresh": 1.0}))
	keywords, err = store.KeywordsFor(ctx, 1, "k")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"fresh": 1.0}, keywords)
}

func TestSetKeywords_Validation(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	err := store.SetKeywords(ctx, 1, "missing", map[string]float64{"x": 0.5})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, Record{UserID: 1, MemoryKey: "k", Content: "c"}))
	err = store.SetKeywords(ctx, 1, "k", map[string]float64{"x": -0.1})
	assert.ErrorIs(t, err, ErrInvalidWeight)
	err = store.SetKeywords(ctx, 1, "k", map[string]float64{"x": 1.1})
	assert.ErrorIs(t, err, ErrInvalidWeight)
}

func TestLookup_Aggregation(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Record{
		UserID: 1, MemoryKey: "db", Content: "c",
		Keywords: map[string]float64{"mysql": 0.9, "config": 0.5, "backup": 0.2},
	}))
	require.NoError(t, store.Save(ctx, Record{
		UserID: 1, MemoryKey: "web", Content: "c",
		Keywords: map[string]float64{"nginx": 0.8},
	}))

	hits, err := store.Lookup(ctx, 1, []string{"mysql", "config"})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hit := hits["db"]
	assert.InDelta(t, 1.4, hit.TotalWeight, 1e-9)
	assert.Equal(t, 2, hit.MatchCount)
	assert.Equal(t, []string{"config", "mysql"}, hit.Matched)
}

func TestLookup_SubstringMatching(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Record{
		UserID: 1, MemoryKey: "k", Content: "c",
		Keywords: map[string]float64{"postgresql": 0.7},
	}))

	// input term contained in stored keyword
	hits, err := store.Lookup(ctx, 1, []string{"postgres"})
	require.NoError(t, err)
	require.Contains(t, hits, "k")
	assert.Equal(t, 1, hits["k"].MatchCount)

	// stored keyword contained in input term
	hits, err = store.Lookup(ctx, 1, []string{"postgresql14"})
	require.NoError(t, err)
	assert.Contains(t, hits, "k")

	// case-insensitive
	hits, err = store.Lookup(ctx, 1, []string{"PostgreSQL"})
	require.NoError(t, err)
	assert.Contains(t, hits, "k")
}

func TestLookup_AssociationCountedOnce(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Record{
		UserID: 1, MemoryKey: "k", Content: "c",
		Keywords: map[string]float64{"database": 0.6},
	}))

	// both terms match the same association; weight and count stay single
	hits, err := store.Lookup(ctx, 1, []string{"database", "data"})
	require.NoError(t, err)
	hit := hits["k"]
	assert.InDelta(t, 0.6, hit.TotalWeight, 1e-9)
	assert.Equal(t, 1, hit.MatchCount)
	assert.Equal(t, []string{"data", "database"}, hit.Matched)
}

func TestLookup_EmptyAndNoMatch(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Record{
		UserID: 1, MemoryKey: "k", Content: "c",
		Keywords: map[string]float64{"mysql": 0.9},
	}))

	hits, err := store.Lookup(ctx, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = store.Lookup(ctx, 1, []string{"  ", ""})
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = store.Lookup(ctx, 1, []string{"kubernetes"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestLookup_SkipsInactiveAndOtherUsers(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Record{
		UserID: 1, MemoryKey: "gone", Content: "c",
		Keywords: map[string]float64{"mysql": 0.9},
	}))
	require.NoError(t, store.Save(ctx, Record{
		UserID: 2, MemoryKey: "other", Content: "c",
		Keywords: map[string]float64{"mysql": 0.9},
	}))
	require.NoError(t, store.Deactivate(ctx, 1, "gone"))

	hits, err := store.Lookup(ctx, 1, []string{"mysql"})
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = store.Lookup(ctx, 2, []string{"mysql"})
	require.NoError(t, err)
	assert.Contains(t, hits, "other")
}
