package market

import (
	"math/rand"
	"sync"
	"time"
)

// Random is the uniform [0, 1) source every generator draws from.
type Random interface {
	Float64() float64
}

// LockedRandom is a seeded math/rand source safe for concurrent use.
type LockedRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLockedRandom returns a Random seeded with seed. A zero seed uses the clock.
func NewLockedRandom(seed int64) *LockedRandom {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LockedRandom{rng: rand.New(rand.NewSource(seed))}
}

// Float64 returns the next value in [0, 1).
func (r *LockedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// Sequence replays fixed values in order, wrapping around at the end.
// It lets callers pin generator output.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewSequence returns a Random that yields values cyclically.
// With no values it always yields 0.5.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

// Float64 returns the next scripted value.
func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0.5
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// Draws reports how many values have been consumed.
func (s *Sequence) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
