package search

import (
	"math"
	"time"
)

// DefaultHalfLifeDays is the time-decay half-life applied when none is
// configured.
const DefaultHalfLifeDays = 30.0

// TimeDecay adjusts a base score for record age. The output always stays
// within [0.5*base, base]: decay can never erase more than half the
// original score, so an old-but-perfect match is dimmed, not buried.
// A created_at in the future (clock skew) counts as age zero.
func TimeDecay(baseScore float64, createdAt, now time.Time, halfLifeDays float64) float64 {
	if halfLifeDays <= 0 {
		halfLifeDays = DefaultHalfLifeDays
	}

	ageDays := math.Floor(now.Sub(createdAt).Hours() / 24)
	if ageDays < 0 {
		ageDays = 0
	}

	return baseScore * (0.5 + 0.5*math.Pow(0.5, ageDays/halfLifeDays))
}
