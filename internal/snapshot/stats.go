package snapshot

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the spread of a snapshot relative to the view window.
type Summary struct {
	Count       int
	MeanX       float64
	MeanY       float64
	StdX        float64
	StdY        float64
	MinX, MaxX  float64
	MinY, MaxY  float64
	OutOfBounds int
}

// Summarize computes centroid, spread, extent and how many particles fall
// outside bounds (and so are clipped by every render).
func Summarize(s Snapshot, bounds ViewBounds) Summary {
	sum := Summary{Count: len(s)}
	if len(s) == 0 {
		return sum
	}

	xs, ys := s.XY()
	if len(s) > 1 {
		sum.MeanX, sum.StdX = stat.MeanStdDev(xs, nil)
		sum.MeanY, sum.StdY = stat.MeanStdDev(ys, nil)
	} else {
		sum.MeanX, sum.MeanY = xs[0], ys[0]
	}
	sum.MinX, sum.MaxX = floats.Min(xs), floats.Max(xs)
	sum.MinY, sum.MaxY = floats.Min(ys), floats.Max(ys)

	for _, p := range s {
		if !bounds.Contains(p) {
			sum.OutOfBounds++
		}
	}
	return sum
}

func (s Summary) String() string {
	return fmt.Sprintf("n=%d centroid=(%.1f, %.1f) std=(%.1f, %.1f) x=[%.1f, %.1f] y=[%.1f, %.1f] clipped=%d",
		s.Count, s.MeanX, s.MeanY, s.StdX, s.StdY, s.MinX, s.MaxX, s.MinY, s.MaxY, s.OutOfBounds)
}
