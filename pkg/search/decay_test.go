package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeDecay_FreshRecordKeepsFullScore(t *testing.T) {
	now := time.Now()
	adjusted := TimeDecay(0.8, now, now, 30)
	assert.InDelta(t, 0.8, adjusted, 1e-9)
}

func TestTimeDecay_HalfLifePoint(t *testing.T) {
	now := time.Now()
	createdAt := now.AddDate(0, 0, -30)

	// At exactly one half-life: base * (0.5 + 0.25)
	adjusted := TimeDecay(1.0, createdAt, now, 30)
	assert.InDelta(t, 0.75, adjusted, 1e-9)
}

func TestTimeDecay_Bounds(t *testing.T) {
	now := time.Now()
	bases := []float64{0.0, 0.1, 0.5, 0.9, 1.0}
	ages := []int{0, 1, 7, 30, 365, 10000}

	for _, base := range bases {
		for _, age := range ages {
			adjusted := TimeDecay(base, now.AddDate(0, 0, -age), now, 30)
			assert.GreaterOrEqual(t, adjusted, 0.5*base-1e-12, "base=%v age=%d", base, age)
			assert.LessOrEqual(t, adjusted, base+1e-12, "base=%v age=%d", base, age)
		}
	}
}

func TestTimeDecay_FutureCreatedAtClampsToZeroAge(t *testing.T) {
	now := time.Now()
	createdAt := now.AddDate(0, 0, 5) // clock skew

	adjusted := TimeDecay(0.6, createdAt, now, 30)
	assert.InDelta(t, 0.6, adjusted, 1e-9)
}

func TestTimeDecay_MonotonicWithAge(t *testing.T) {
	now := time.Now()
	prev := TimeDecay(1.0, now, now, 30)
	for _, age := range []int{1, 5, 20, 60, 200} {
		cur := TimeDecay(1.0, now.AddDate(0, 0, -age), now, 30)
		assert.LessOrEqual(t, cur, prev, "age=%d", age)
		prev = cur
	}
}

func TestTimeDecay_ZeroHalfLifeUsesDefault(t *testing.T) {
	now := time.Now()
	createdAt := now.AddDate(0, 0, -int(DefaultHalfLifeDays))

	adjusted := TimeDecay(1.0, createdAt, now, 0)
	assert.InDelta(t, 0.75, adjusted, 1e-9)
}
