package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"
)

// Mock is a deterministic in-process Gateway for tests and offline use.
// The same text always maps to the same unit vector; distinct texts map to
// distinct vectors with overwhelming likelihood. Fixed vectors can be
// pinned per text, and failures injected.
type Mock struct {
	dimension int

	mu    sync.Mutex
	fixed map[string][]float32
	err   error
	calls int
}

// NewMock creates a deterministic mock gateway.
func NewMock(dimension int) *Mock {
	return &Mock{
		dimension: dimension,
		fixed:     map[string][]float32{},
	}
}

// Dimension returns the configured vector length.
func (m *Mock) Dimension() int {
	return m.dimension
}

// SetVector pins the embedding returned for an exact text.
func (m *Mock) SetVector(text string, vector []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixed[text] = vector
}

// Fail makes every subsequent Embed call return err. Pass nil to recover.
func (m *Mock) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many Embed calls reached the mock.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Embed produces a hash-seeded unit vector for the text.
func (m *Mock) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls++
	err := m.err
	pinned, ok := m.fixed[text]
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if ok {
		return pinned, nil
	}

	sum := sha256.Sum256([]byte(text))
	seed := binary.BigEndian.Uint64(sum[:8])

	vector := make([]float32, m.dimension)
	var norm float64
	state := seed
	for i := range vector {
		// xorshift64
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		v := float64(int64(state%2000)-1000) / 1000.0
		vector[i] = float32(v)
		norm += v * v
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}
	return vector, nil
}
