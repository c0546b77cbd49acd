package snapshot

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// Parse applies the consistency check to raw file content. The line count is
// checked before any line is parsed, so the common torn-read case costs one
// pass over the bytes.
//
// Only finite coordinates are accepted. NaN, Inf and values that overflow a
// float64 (such as 1e400) make the line malformed, since no fixed view window
// can place them.
func Parse(data []byte, expected int) (Snapshot, error) {
	lines := splitLines(data)
	if len(lines) != expected {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLineCount, len(lines), expected)
	}

	snap := make(Snapshot, 0, expected)
	for i, line := range lines {
		p, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedLine, i+1, err)
		}
		snap = append(snap, p)
	}
	return snap, nil
}

// splitLines counts lines the way a line reader does: a trailing newline does
// not start a new line, but blank lines in the middle do count.
func splitLines(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	lines := bytes.Split(data, []byte{'\n'})
	if len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func parseLine(line []byte) (Point, error) {
	fields := bytes.Fields(line)
	if len(fields) != 2 {
		return Point{}, fmt.Errorf("want 2 fields, got %d", len(fields))
	}
	x, err := parseCoord(fields[0])
	if err != nil {
		return Point{}, err
	}
	y, err := parseCoord(fields[1])
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

func parseCoord(field []byte) (float64, error) {
	v, err := strconv.ParseFloat(string(field), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", field)
	}
	return v, nil
}

// Format renders a snapshot in the producer's line format.
func Format(s Snapshot) []byte {
	var buf bytes.Buffer
	buf.Grow(len(s) * 24)
	for _, p := range s {
		fmt.Fprintf(&buf, "%f %f\n", p.X, p.Y)
	}
	return buf.Bytes()
}
