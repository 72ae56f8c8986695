// Package random holds the statistical primitives every stochastic decision
// in the simulator is expressed through: weighted discrete choice, bounded
// normal sampling and uniform integers. All of them draw from an explicit
// Source so a seeded simulation replays exactly.
package random

import (
	"hash/fnv"
	"math/rand/v2"
	"strconv"
)

// Source is the random-source handle threaded through every primitive.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
}

// pcgSource is a reproducible PCG-backed Source. It is not safe for
// concurrent use; each simulation owns its own.
type pcgSource struct {
	r *rand.Rand
}

// NewSource returns a seeded Source.
func NewSource(seed uint64) Source {
	return &pcgSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *pcgSource) Float64() float64 { return s.r.Float64() }

// DeriveSeed returns the per-game seed for idGame under a master seed.
// Games in the same batch get isolated streams, and a game's stream does not
// depend on which other games were due alongside it.
func DeriveSeed(master int64, idGame int64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("game_" + strconv.FormatInt(idGame, 10)))
	return uint64(master) ^ h.Sum64()
}

// Fixed replays a fixed sequence of uniform values, cycling when exhausted.
// It exists for tests that need to pin individual draws.
type Fixed struct {
	Values []float64
	next   int
}

// Float64 returns the next value in the sequence.
func (f *Fixed) Float64() float64 {
	if len(f.Values) == 0 {
		return 0
	}
	v := f.Values[f.next%len(f.Values)]
	f.next++
	return v
}
