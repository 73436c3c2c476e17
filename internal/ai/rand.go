package ai

import (
	"math/rand"
	"time"
)

// Rand is the random stream shared by every AI module in one battle.
// Draw order must stay stable across units for a seeded battle to replay.
type Rand struct {
	r *rand.Rand
}

// NewRand returns a deterministic stream. A zero seed uses the clock.
func NewRand(seed int64) *Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Rand{r: rand.New(rand.NewSource(seed))}
}

// Generate returns a uniform integer in [lo, hi].
func (r *Rand) Generate(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + r.r.Intn(hi-lo+1)
}

// Percent returns true with probability p/100.
func (r *Rand) Percent(p int) bool {
	if p <= 0 {
		return false
	}
	return r.Generate(0, 99) < p
}

// Float64 returns a uniform float in [0, 1).
func (r *Rand) Float64() float64 {
	return r.r.Float64()
}

// Intn returns a uniform integer in [0, n).
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.Intn(n)
}

// Shuffle permutes n elements through swap.
func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	r.r.Shuffle(n, swap)
}
