package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock_Deterministic(t *testing.T) {
	m := NewMock(384)

	a, err := m.Embed(context.Background(), "the same text")
	require.NoError(t, err)
	b, err := m.Embed(context.Background(), "the same text")
	require.NoError(t, err)
	c, err := m.Embed(context.Background(), "different text")
	require.NoError(t, err)

	assert.Len(t, a, 384)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestMock_PinnedVector(t *testing.T) {
	m := NewMock(3)
	m.SetVector("query", []float32{1, 0, 0})

	v, err := m.Embed(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, v)
}

func TestMock_Failure(t *testing.T) {
	m := NewMock(3)
	m.Fail(ErrUnavailable)

	_, err := m.Embed(context.Background(), "query")
	assert.ErrorIs(t, err, ErrUnavailable)

	m.Fail(nil)
	_, err = m.Embed(context.Background(), "query")
	assert.NoError(t, err)
}

func TestMock_ContextCancelled(t *testing.T) {
	m := NewMock(3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Embed(ctx, "query")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCached_HitSkipsInner(t *testing.T) {
	inner := NewMock(8)
	cached, err := NewCached(inner, 1<<20)
	require.NoError(t, err)

	first, err := cached.Embed(context.Background(), "repeated")
	require.NoError(t, err)
	cached.Wait()

	second, err := cached.Embed(context.Background(), "repeated")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.Calls())
	assert.Equal(t, 8, cached.Dimension())
}

func TestCached_ErrorNotCached(t *testing.T) {
	inner := NewMock(8)
	cached, err := NewCached(inner, 1<<20)
	require.NoError(t, err)

	inner.Fail(errors.New("boom"))
	_, err = cached.Embed(context.Background(), "text")
	require.Error(t, err)

	inner.Fail(nil)
	_, err = cached.Embed(context.Background(), "text")
	assert.NoError(t, err)
}
