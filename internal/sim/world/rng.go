package world

import "math/rand"

// RNG is the engine's only randomness source. Every draw goes through one
// underlying Int63 call and bumps Position, so a stream can be reproduced
// exactly from (Seed, Position) when resuming a replay.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  uint64
}

func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// RestoreRNG rebuilds a source at a recorded stream position.
func RestoreRNG(seed int64, pos uint64) *RNG {
	r := NewRNG(seed)
	for i := uint64(0); i < pos; i++ {
		r.next()
	}
	return r
}

func (r *RNG) next() int64 {
	r.pos++
	return r.src.Int63()
}

// Intn returns a value in [0, n). n <= 1 returns 0 without drawing.
func (r *RNG) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return int(r.next() % int64(n))
}

// Perm returns a permutation of [0, n) by Fisher-Yates over Intn.
func (r *RNG) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}

func (r *RNG) Seed() int64      { return r.seed }
func (r *RNG) Position() uint64 { return r.pos }
