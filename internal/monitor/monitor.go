// Package monitor runs the polling loop that turns a continuously overwritten
// particle file into a stream of consistent renders.
//
// Each tick is gated twice: a cheap modification-time probe decides whether
// the file is worth reading at all, and the snapshot consistency check decides
// whether what was read may be rendered. Torn reads and a missing file are
// normal and silently retried on the next tick; I/O failures are logged and
// polling continues. The loop only ends when its context is cancelled.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/banshee-data/spacegraph/internal/monitoring"
	"github.com/banshee-data/spacegraph/internal/render"
	"github.com/banshee-data/spacegraph/internal/snapshot"
	"github.com/banshee-data/spacegraph/internal/timeutil"
)

// DefaultInterval is the poll cadence when Config.Interval is unset.
const DefaultInterval = time.Second

// Source is the monitored file. *snapshot.Source implements it.
type Source interface {
	Path() string
	ProbeChanged(last time.Time) (time.Time, bool, error)
	ReadConsistent() (snapshot.Snapshot, error)
}

// Outcome is the result of one poll tick.
type Outcome int

const (
	// OutcomeUnchanged means the modification time matched the last render.
	OutcomeUnchanged Outcome = iota
	// OutcomeAbsent means the file does not exist (yet).
	OutcomeAbsent
	// OutcomeSkipped means the file changed but the read was not consistent.
	OutcomeSkipped
	// OutcomeRendered means a consistent snapshot was handed to the sink.
	OutcomeRendered
	// OutcomeError means an operational failure was reported.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeAbsent:
		return "absent"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRendered:
		return "rendered"
	case OutcomeError:
		return "error"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Config contains configuration for Monitor.
type Config struct {
	// Source is the monitored file (required).
	Source Source
	// Sink receives every consistent snapshot (required).
	Sink render.Sink
	// Bounds is the fixed view window passed to every render.
	Bounds snapshot.ViewBounds
	// Interval is the poll cadence; defaults to DefaultInterval.
	Interval time.Duration
	// Wake, if set, triggers an extra tick each time it receives. The
	// consistency check still applies, so a wake-up mid-write is harmless.
	Wake <-chan struct{}
	// SkipWarnAfter logs one warning once this many consecutive
	// change-triggered reads were inconsistent. Zero disables the warning.
	SkipWarnAfter int
	// Clock defaults to timeutil.RealClock.
	Clock timeutil.Clock
	// Logger is optional; if nil, uses log.Default().
	Logger *log.Logger
}

// Monitor owns the watch state for one monitored file. It is driven by a
// single goroutine (Run, or direct Tick calls in tests); only Stats may be
// called concurrently.
type Monitor struct {
	cfg Config

	// lastMod is the modification time of the last rendered snapshot.
	lastMod time.Time
	// consecutiveSkips counts inconsistent reads since the last render.
	consecutiveSkips int
	warned           bool

	ticks      atomic.Int64
	changes    atomic.Int64
	renders    atomic.Int64
	skips      atomic.Int64
	errs       atomic.Int64
	lastRender atomic.Int64
}

// Stats are point-in-time counters.
type Stats struct {
	Ticks           int64     `json:"ticks"`
	ChangesDetected int64     `json:"changes_detected"`
	Renders         int64     `json:"renders"`
	Skips           int64     `json:"skips"`
	Errors          int64     `json:"errors"`
	LastRender      time.Time `json:"last_render"`
}

// New validates cfg and returns a Monitor.
func New(cfg Config) (*Monitor, error) {
	if cfg.Source == nil {
		return nil, errors.New("monitor: source is required")
	}
	if cfg.Sink == nil {
		return nil, errors.New("monitor: sink is required")
	}
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.SkipWarnAfter < 0 {
		cfg.SkipWarnAfter = 0
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Monitor{cfg: cfg}, nil
}

// Run polls until ctx is cancelled and then returns nil. The first tick runs
// immediately; after that one tick per Interval, plus one per Wake signal.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := m.cfg.Clock.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	wake := m.cfg.Wake
	m.cfg.Logger.Printf("monitor started: path=%s interval=%v notify=%t", m.cfg.Source.Path(), m.cfg.Interval, wake != nil)

	for {
		if ctx.Err() != nil {
			break
		}
		m.Tick()

		select {
		case <-ctx.Done():
		case <-ticker.C():
		case _, ok := <-wake:
			if !ok {
				m.cfg.Logger.Printf("monitor: notification channel closed, polling only")
				wake = nil
			}
		}
	}

	s := m.Stats()
	m.cfg.Logger.Printf("monitor stopped: ticks=%d renders=%d skips=%d errors=%d", s.Ticks, s.Renders, s.Skips, s.Errors)
	return nil
}

// Tick performs one poll: probe the modification time and, if it changed,
// attempt a consistent read and render it.
//
// The recorded modification time only advances after a successful render.
// A file that stays inconsistent is therefore re-read on every tick, but a
// write completed within the same mtime granularity as a torn one is still
// picked up.
func (m *Monitor) Tick() Outcome {
	m.ticks.Add(1)
	src := m.cfg.Source

	mod, changed, err := src.ProbeChanged(m.lastMod)
	if err != nil {
		return m.fail("probe", err)
	}
	if !changed {
		if mod.IsZero() {
			monitoring.Debugf("monitor: %s does not exist yet", src.Path())
			return OutcomeAbsent
		}
		return OutcomeUnchanged
	}
	m.changes.Add(1)

	snap, err := src.ReadConsistent()
	if err != nil {
		if snapshot.IsTransient(err) {
			m.skip(err)
			return OutcomeSkipped
		}
		return m.fail("read", err)
	}

	if err := m.cfg.Sink.Present(snap, m.cfg.Bounds); err != nil {
		// lastMod stays put so the next tick retries this snapshot.
		return m.fail("render", err)
	}

	m.lastMod = mod
	m.consecutiveSkips = 0
	m.warned = false
	m.renders.Add(1)
	m.lastRender.Store(m.cfg.Clock.Now().UnixNano())
	if monitoring.Verbose() {
		monitoring.Debugf("monitor: rendered mtime=%s %s", mod.Format(time.RFC3339Nano), snapshot.Summarize(snap, m.cfg.Bounds))
	}
	return OutcomeRendered
}

// Stats returns the current counters.
func (m *Monitor) Stats() Stats {
	s := Stats{
		Ticks:           m.ticks.Load(),
		ChangesDetected: m.changes.Load(),
		Renders:         m.renders.Load(),
		Skips:           m.skips.Load(),
		Errors:          m.errs.Load(),
	}
	if ns := m.lastRender.Load(); ns != 0 {
		s.LastRender = time.Unix(0, ns)
	}
	return s
}

func (m *Monitor) fail(op string, err error) Outcome {
	m.errs.Add(1)
	m.cfg.Logger.Printf("monitor: %s failed: %v", op, err)
	return OutcomeError
}

func (m *Monitor) skip(err error) {
	m.skips.Add(1)
	m.consecutiveSkips++
	monitoring.Debugf("monitor: skipped inconsistent read: %v", err)

	if m.cfg.SkipWarnAfter > 0 && !m.warned && m.consecutiveSkips >= m.cfg.SkipWarnAfter {
		m.warned = true
		m.cfg.Logger.Printf("monitor: %d consecutive inconsistent reads of %s (last: %v); still waiting for a complete snapshot",
			m.consecutiveSkips, m.cfg.Source.Path(), err)
	}
}
