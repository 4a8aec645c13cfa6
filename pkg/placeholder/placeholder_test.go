package placeholder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallkit/recall/pkg/memory"
)

type fakeStore struct {
	records map[string]memory.Record
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]memory.Record{}}
}

func (f *fakeStore) key(userID int64, memoryKey string) string {
	return fmt.Sprintf("%d/%s", userID, memoryKey)
}

func (f *fakeStore) Save(ctx context.Context, rec memory.Record) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records[f.key(rec.UserID, rec.MemoryKey)] = rec
	return nil
}

func (f *fakeStore) Get(ctx context.Context, userID int64, memoryKey string) (*memory.Record, error) {
	rec, ok := f.records[f.key(userID, memoryKey)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", memory.ErrNotFound, memoryKey)
	}
	return &rec, nil
}

type staticSummarizer struct {
	summary string
	err     error
}

func (s staticSummarizer) Summarize(ctx context.Context, content string) (string, error) {
	return s.summary, s.err
}

func createTestOffloader(t *testing.T, store Store, summarizer Summarizer) *Offloader {
	t.Helper()
	o, err := New(Config{
		Store:      store,
		Summarizer: summarizer,
		Threshold:  10,
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)
	return o
}

func TestOffload_SmallContentPassesThrough(t *testing.T) {
	store := newFakeStore()
	o := createTestOffloader(t, store, nil)

	out, offloaded, err := o.Offload(context.Background(), 1, "short", nil)
	require.NoError(t, err)
	assert.False(t, offloaded)
	assert.Equal(t, "short", out)
	assert.Empty(t, store.records)
}

func TestOffload_LargeContentStoredBehindPlaceholder(t *testing.T) {
	store := newFakeStore()
	o := createTestOffloader(t, store, staticSummarizer{summary: "build log tail"})

	content := strings.Repeat("x", 100)
	out, offloaded, err := o.Offload(context.Background(), 1, content, map[string]any{"source": "shell"})
	require.NoError(t, err)
	assert.True(t, offloaded)

	refs := Refs(out)
	require.Len(t, refs, 1)
	assert.Equal(t, "build log tail", refs[0].Summary)
	assert.Contains(t, out, "- 25 tokens]")

	rec, err := store.Get(context.Background(), 1, refs[0].Key)
	require.NoError(t, err)
	assert.Equal(t, content, rec.Content)
	assert.Equal(t, OffloadType, rec.MemoryType)
	assert.Equal(t, "shell", rec.Metadata["source"])
}

func TestOffload_FallbackSummary(t *testing.T) {
	store := newFakeStore()
	content := strings.Repeat("x", 100)

	// no summarizer
	o := createTestOffloader(t, store, nil)
	out, _, err := o.Offload(context.Background(), 1, content, nil)
	require.NoError(t, err)
	require.Len(t, Refs(out), 1)
	assert.Equal(t, "large content", Refs(out)[0].Summary)

	// failing summarizer
	o = createTestOffloader(t, store, staticSummarizer{err: errors.New("model offline")})
	out, _, err = o.Offload(context.Background(), 1, content, nil)
	require.NoError(t, err)
	require.Len(t, Refs(out), 1)
	assert.Equal(t, "large content", Refs(out)[0].Summary)
}

func TestOffload_SummaryKeptSingleLine(t *testing.T) {
	store := newFakeStore()
	o := createTestOffloader(t, store, staticSummarizer{summary: "first\nsecond   third"})

	out, _, err := o.Offload(context.Background(), 1, strings.Repeat("x", 100), nil)
	require.NoError(t, err)
	refs := Refs(out)
	require.Len(t, refs, 1)
	assert.Equal(t, "first second third", refs[0].Summary)
}

func TestOffload_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("disk full")
	o := createTestOffloader(t, store, nil)

	_, _, err := o.Offload(context.Background(), 1, strings.Repeat("x", 100), nil)
	assert.Error(t, err)
}

func TestRefs(t *testing.T) {
	text := "before [MemoryRef: 1f2e3d4c-0000-0000-0000-000000000001 - db dump - 500 tokens] " +
		"middle [MemoryRef: 1f2e3d4c-0000-0000-0000-000000000002 - logs - 120 tokens] after"

	refs := Refs(text)
	require.Len(t, refs, 2)
	assert.Equal(t, "1f2e3d4c-0000-0000-0000-000000000001", refs[0].Key)
	assert.Equal(t, "db dump", refs[0].Summary)
	assert.Equal(t, "logs", refs[1].Summary)

	assert.Empty(t, Refs("no placeholders here"))
}

func TestExpand(t *testing.T) {
	store := newFakeStore()
	o := createTestOffloader(t, store, nil)

	placeholder, offloaded, err := o.Offload(context.Background(), 1, strings.Repeat("payload ", 20), nil)
	require.NoError(t, err)
	require.True(t, offloaded)
	key := Refs(placeholder)[0].Key

	text := "context: " + placeholder + " end"
	expanded, err := o.Expand(context.Background(), 1, text, []string{key})
	require.NoError(t, err)
	assert.Contains(t, expanded, "[Expanded Memory: "+key+"]")
	assert.Contains(t, expanded, "payload payload")
	assert.Contains(t, expanded, "[End Memory]")
	assert.NotContains(t, expanded, "[MemoryRef:")
}

func TestExpand_MissingKeyKeepsPlaceholder(t *testing.T) {
	store := newFakeStore()
	o := createTestOffloader(t, store, nil)

	text := "[MemoryRef: 1f2e3d4c-0000-0000-0000-00000000dead - gone - 9 tokens]"
	expanded, err := o.Expand(context.Background(), 1, text, []string{"1f2e3d4c-0000-0000-0000-00000000dead"})
	require.NoError(t, err)
	assert.Equal(t, text, expanded)
}

func TestExpand_OtherUserCannotRead(t *testing.T) {
	store := newFakeStore()
	o := createTestOffloader(t, store, nil)

	placeholder, _, err := o.Offload(context.Background(), 1, strings.Repeat("secret ", 20), nil)
	require.NoError(t, err)
	key := Refs(placeholder)[0].Key

	expanded, err := o.Expand(context.Background(), 2, placeholder, []string{key})
	require.NoError(t, err)
	assert.Equal(t, placeholder, expanded)
}
