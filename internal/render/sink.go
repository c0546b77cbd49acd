// Package render presents particle snapshots to an operator. The monitor
// decides when to render and with what data; a Sink decides how.
package render

import (
	"errors"
	"fmt"
	"log"

	"github.com/banshee-data/spacegraph/internal/snapshot"
)

// DefaultTitle is the heading every sink uses unless configured otherwise.
const DefaultTitle = "Real-Time Particle Position Updates"

// Sink accepts a complete snapshot and the fixed view window and replaces
// whatever it presented before. Present is called synchronously from the
// monitor loop and must not retain snap after returning.
type Sink interface {
	Present(snap snapshot.Snapshot, bounds snapshot.ViewBounds) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(snap snapshot.Snapshot, bounds snapshot.ViewBounds) error

// Present calls f.
func (f SinkFunc) Present(snap snapshot.Snapshot, bounds snapshot.ViewBounds) error {
	return f(snap, bounds)
}

// Multi fans a snapshot out to several sinks. Every sink is called even if an
// earlier one fails; the failures are joined.
type Multi []Sink

// Present forwards to every sink in order.
func (m Multi) Present(snap snapshot.Snapshot, bounds snapshot.ViewBounds) error {
	var errs []error
	for _, s := range m {
		if err := s.Present(snap, bounds); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes a one-line statistical summary per snapshot. It is the
// headless sink, useful over ssh or when recording a run.
type LogSink struct {
	logger  *log.Logger
	session string
	frames  int
}

// NewLogSink creates a LogSink. A nil logger uses log.Default().
func NewLogSink(logger *log.Logger, session string) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger, session: session}
}

// Present logs the snapshot summary.
func (s *LogSink) Present(snap snapshot.Snapshot, bounds snapshot.ViewBounds) error {
	s.frames++
	s.logger.Printf("[%s] frame %d: %s", s.session, s.frames, snapshot.Summarize(snap, bounds))
	return nil
}

// Frames returns how many snapshots have been presented.
func (s *LogSink) Frames() int { return s.frames }

func subtitle(session string, frame int, snap snapshot.Snapshot, bounds snapshot.ViewBounds) string {
	sum := snapshot.Summarize(snap, bounds)
	return fmt.Sprintf("session=%s frame=%d particles=%d clipped=%d", session, frame, sum.Count, sum.OutOfBounds)
}
