package decision

import (
	"math/rand"
	"sync"
)

// Roller supplies the random draw consumed by Probabilistic nodes. It
// is an explicit dependency of evaluation rather than a process-wide
// generator, so runs are reproducible under test.
type Roller interface {
	// Roll returns a draw in [0, 1).
	Roll() float64
}

type seededRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededRoller returns a Roller backed by its own seeded generator.
// Safe for concurrent use.
func NewSeededRoller(seed int64) Roller {
	return &seededRoller{rng: rand.New(rand.NewSource(seed))}
}

func (r *seededRoller) Roll() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// SequenceRoller replays a forced sequence of draws, wrapping around
// when exhausted. Intended for tests; not safe for concurrent use.
type SequenceRoller struct {
	draws []float64
	next  int
}

func NewSequenceRoller(draws ...float64) *SequenceRoller {
	return &SequenceRoller{draws: draws}
}

func (r *SequenceRoller) Roll() float64 {
	if len(r.draws) == 0 {
		return 1
	}
	v := r.draws[r.next%len(r.draws)]
	r.next++
	return v
}
