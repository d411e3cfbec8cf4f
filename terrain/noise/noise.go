// Package noise generates deterministic terrain heights from a world seed,
// exposing an f(seed, x, y) -> height contract the streaming engine samples
// directly rather than a precomputed byte buffer.
package noise

import (
	"github.com/aquilax/go-perlin"
)

const (
	alpha = 2.0
	beta  = 2.0
	n     = 3
)

// Generator produces heights by layering two octaves of Perlin noise: a
// low-frequency pass for broad terrain shape and a high-frequency pass for
// surface detail.
type Generator struct {
	seed int64
	lo   *perlin.Perlin
	hi   *perlin.Perlin
}

// NewGenerator builds octave generators seeded deterministically from seed
// so that any two servers configured with the same world seed produce byte
// identical terrain.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		seed: seed,
		lo:   perlin.NewPerlin(alpha, beta, n, seed),
		hi:   perlin.NewPerlin(alpha, beta, n, seed^0x5a5a5a5a),
	}
}

// SampleHeight returns a deterministic height for the given world-space
// position. Scales and weights are tuned by eye.
func (g *Generator) SampleHeight(x, z float32) float32 {
	const (
		loScale  = 0.004
		hiScale  = 0.05
		loWeight = 18.0
		hiWeight = 2.5
	)
	lo := g.lo.Noise2D(float64(x)*loScale, float64(z)*loScale)
	hi := g.hi.Noise2D(float64(x)*hiScale, float64(z)*hiScale)
	return float32(lo)*loWeight + float32(hi)*hiWeight
}
