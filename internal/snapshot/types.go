// Package snapshot reads particle-position snapshots from a file that an
// external simulation keeps overwriting, and rejects torn reads.
//
// The producer offers no transaction marker: it truncates the file and writes
// one "x y" line per particle. The only consistency oracle is the expected
// particle count, so a read is accepted only when the file holds exactly that
// many lines and every line parses as two finite numbers.
package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
)

// Point is one particle position.
type Point struct {
	X float64
	Y float64
}

// Snapshot is the complete, ordered set of particle positions at one instant.
// A non-nil Snapshot returned by this package always has exactly the expected
// number of points, in file order.
type Snapshot []Point

// XY returns the coordinates as two parallel slices.
func (s Snapshot) XY() (xs, ys []float64) {
	xs = make([]float64, len(s))
	ys = make([]float64, len(s))
	for i, p := range s {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return xs, ys
}

// ViewBounds is the fixed coordinate window used for every render.
type ViewBounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// DefaultViewBounds matches the simulation's default spawn area with margin.
func DefaultViewBounds() ViewBounds {
	return ViewBounds{XMin: -20000, XMax: 20000, YMin: -20000, YMax: 20000}
}

// Validate checks that both ranges are non-empty.
func (b ViewBounds) Validate() error {
	if !(b.XMin < b.XMax) {
		return fmt.Errorf("x range must satisfy min < max, got [%g, %g]", b.XMin, b.XMax)
	}
	if !(b.YMin < b.YMax) {
		return fmt.Errorf("y range must satisfy min < max, got [%g, %g]", b.YMin, b.YMax)
	}
	return nil
}

// Contains reports whether p lies inside the window, edges included.
func (b ViewBounds) Contains(p Point) bool {
	return p.X >= b.XMin && p.X <= b.XMax && p.Y >= b.YMin && p.Y <= b.YMax
}

// ErrNoSnapshot marks a read that did not yield a consistent snapshot. It is
// the expected outcome of sampling the file mid-write and is never fatal.
var ErrNoSnapshot = errors.New("no consistent snapshot")

var (
	// ErrLineCount means the file did not hold exactly the expected number of lines.
	ErrLineCount = fmt.Errorf("%w: line count mismatch", ErrNoSnapshot)
	// ErrMalformedLine means a line was not exactly two finite numbers.
	ErrMalformedLine = fmt.Errorf("%w: malformed line", ErrNoSnapshot)
)

// IsTransient reports whether err is part of the normal race with the
// producer: the file does not exist yet, or the read was torn.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNoSnapshot) || errors.Is(err, fs.ErrNotExist)
}
