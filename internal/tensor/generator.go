package tensor

import (
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultSeed is the seed a Generator starts from unless configured otherwise.
const DefaultSeed uint64 = 572547235

// Generator is the random state behind Rand. It draws from a uniform
// distribution on [0, 1) and is owned by a Context, so two contexts never share
// state and a reseeded generator replays the same sequence.
type Generator struct {
	mu   sync.Mutex
	seed uint64
	src  *rand.PCG
	dist distuv.Uniform
}

// NewGenerator creates a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	src := rand.NewPCG(seed, seed)
	return &Generator{
		seed: seed,
		src:  src,
		dist: distuv.Uniform{Min: 0, Max: 1, Src: src},
	}
}

// Seed resets the generator state.
func (g *Generator) Seed(seed uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seed = seed
	g.src.Seed(seed, seed)
}

// CurrentSeed returns the seed the generator was last (re)seeded with.
func (g *Generator) CurrentSeed() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seed
}

// Float32 returns one sample in [0, 1).
func (g *Generator) Float32() float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.next()
}

// Fill writes independent samples into dst.
func (g *Generator) Fill(dst []float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range dst {
		dst[i] = g.next()
	}
}

// next must be called with g.mu held.
func (g *Generator) next() float32 {
	v := float32(g.dist.Rand())
	// Rounding to float32 can reach the open upper bound.
	if v >= 1 {
		v = math.Nextafter32(1, 0)
	}
	return v
}
