package snapshot

import (
	"math"
	"math/rand"
)

// SyntheticGenerator produces particle snapshots for demos and tests. Each
// particle orbits the origin at its own radius and angular speed, which is
// enough motion to see the monitor redraw.
type SyntheticGenerator struct {
	Count  int     // particles per snapshot
	Radius float64 // maximum orbit radius
	Step   float64 // radians per call to Next at unit speed

	radius []float64
	phase  []float64
	speed  []float64
}

// NewSyntheticGenerator creates a generator with count particles seeded from seed.
func NewSyntheticGenerator(count int, radius float64, seed int64) *SyntheticGenerator {
	rng := rand.New(rand.NewSource(seed))
	g := &SyntheticGenerator{
		Count:  count,
		Radius: radius,
		Step:   0.05,
		radius: make([]float64, count),
		phase:  make([]float64, count),
		speed:  make([]float64, count),
	}
	for i := 0; i < count; i++ {
		g.radius[i] = math.Sqrt(rng.Float64()) * radius
		g.phase[i] = rng.Float64() * 2 * math.Pi
		g.speed[i] = 0.5 + rng.Float64()
	}
	return g
}

// Next advances every particle one step and returns the new positions.
func (g *SyntheticGenerator) Next() Snapshot {
	snap := make(Snapshot, g.Count)
	for i := range snap {
		g.phase[i] += g.Step * g.speed[i]
		snap[i] = Point{
			X: g.radius[i] * math.Cos(g.phase[i]),
			Y: g.radius[i] * math.Sin(g.phase[i]),
		}
	}
	return snap
}
