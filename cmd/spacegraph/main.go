// Command spacegraph watches a particle position file that another process
// keeps overwriting and renders every complete snapshot it observes.
//
//	spacegraph [flags] <path> <expected-count>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/google/uuid"

	"github.com/banshee-data/spacegraph/internal/config"
	"github.com/banshee-data/spacegraph/internal/monitor"
	"github.com/banshee-data/spacegraph/internal/monitoring"
	"github.com/banshee-data/spacegraph/internal/render"
	"github.com/banshee-data/spacegraph/internal/snapshot"
	"github.com/banshee-data/spacegraph/internal/version"
)

var (
	pathFlag     = flag.String("path", "", "Particle file to monitor (or first positional argument)")
	countFlag    = flag.Int("count", 0, "Number of lines in a complete snapshot (or second positional argument)")
	configFile   = flag.String("config", "", "Optional JSON config file; flags override its values")
	interval     = flag.Duration("interval", monitor.DefaultInterval, "Poll interval")
	xMin         = flag.Float64("xmin", -20000, "Left edge of the view window")
	xMax         = flag.Float64("xmax", 20000, "Right edge of the view window")
	yMin         = flag.Float64("ymin", -20000, "Bottom edge of the view window")
	yMax         = flag.Float64("ymax", 20000, "Top edge of the view window")
	sinkList     = flag.String("sink", config.SinkTerm, "Comma-separated outputs: "+strings.Join(config.KnownSinks, ","))
	outDir       = flag.String("out", ".", "Output directory for png and html sinks")
	refresh      = flag.Int("refresh", 1, "Auto-refresh period in seconds for the html sink (0 disables)")
	notify       = flag.Bool("notify", false, "Also wake on filesystem notifications")
	skipWarn     = flag.Int("skip-warn", 0, "Warn once after this many consecutive inconsistent reads (0 disables)")
	verbose      = flag.Bool("v", false, "Verbose logging, including skipped reads")
	printVersion = flag.Bool("version", false, "Print version and exit")
)

// options is the resolved run configuration after merging the config file,
// flags and positional arguments.
type options struct {
	Path          string
	ExpectedCount int
	Interval      time.Duration
	Bounds        snapshot.ViewBounds
	Sinks         []string
	OutputDir     string
	Refresh       int
	Notify        bool
	SkipWarnAfter int
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: spacegraph [flags] <path> <expected-count>\n\n")
	fmt.Fprintf(out, "Monitors a continuously overwritten file of \"x y\" particle lines and renders\n")
	fmt.Fprintf(out, "each snapshot whose line count matches <expected-count>.\n\nFlags:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *printVersion {
		fmt.Println(version.String())
		return
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	opts, err := resolveOptions(set, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "spacegraph: %v\n\n", err)
		flag.Usage()
		os.Exit(2)
	}

	if err := run(opts, os.Stdout, os.Stderr); err != nil {
		log.Fatalf("spacegraph: %v", err)
	}
}

// resolveOptions layers defaults, the config file, explicitly set flags and
// positional arguments, in that order, and validates the result.
func resolveOptions(set map[string]bool, args []string) (*options, error) {
	cfg := config.EmptyMonitorConfig()
	if *configFile != "" {
		loaded, err := config.LoadMonitorConfig(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	opts := &options{
		Path:          cfg.GetPath(),
		ExpectedCount: cfg.GetExpectedCount(),
		Interval:      cfg.GetPollInterval(),
		Bounds: snapshot.ViewBounds{
			XMin: cfg.GetXMin(), XMax: cfg.GetXMax(),
			YMin: cfg.GetYMin(), YMax: cfg.GetYMax(),
		},
		Sinks:         cfg.GetSinks(),
		OutputDir:     cfg.GetOutputDir(),
		Refresh:       cfg.GetRefreshSeconds(),
		Notify:        cfg.GetNotify(),
		SkipWarnAfter: cfg.GetSkipWarnAfter(),
	}

	if set["path"] {
		opts.Path = *pathFlag
	}
	if set["count"] {
		opts.ExpectedCount = *countFlag
	}
	if set["interval"] {
		opts.Interval = *interval
	}
	if set["xmin"] {
		opts.Bounds.XMin = *xMin
	}
	if set["xmax"] {
		opts.Bounds.XMax = *xMax
	}
	if set["ymin"] {
		opts.Bounds.YMin = *yMin
	}
	if set["ymax"] {
		opts.Bounds.YMax = *yMax
	}
	if set["sink"] {
		sinks, err := config.ParseSinks([]string{*sinkList})
		if err != nil {
			return nil, err
		}
		opts.Sinks = sinks
	}
	if set["out"] {
		opts.OutputDir = *outDir
	}
	if set["refresh"] {
		opts.Refresh = *refresh
	}
	if set["notify"] {
		opts.Notify = *notify
	}
	if set["skip-warn"] {
		opts.SkipWarnAfter = *skipWarn
	}

	switch len(args) {
	case 0:
	case 2:
		opts.Path = args[0]
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("expected-count %q is not an integer", args[1])
		}
		opts.ExpectedCount = n
	default:
		return nil, fmt.Errorf("want <path> <expected-count>, got %d argument(s)", len(args))
	}

	if opts.Path == "" {
		return nil, errors.New("path to monitor is required")
	}
	if opts.ExpectedCount <= 0 {
		return nil, fmt.Errorf("expected-count must be a positive integer, got %d", opts.ExpectedCount)
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", opts.Interval)
	}
	if err := opts.Bounds.Validate(); err != nil {
		return nil, err
	}
	if opts.Refresh < 0 {
		return nil, fmt.Errorf("refresh must be non-negative, got %d", opts.Refresh)
	}
	if opts.SkipWarnAfter < 0 {
		return nil, fmt.Errorf("skip-warn must be non-negative, got %d", opts.SkipWarnAfter)
	}
	return opts, nil
}

// run monitors until SIGINT or SIGTERM. It only returns an error for setup
// failures; the monitor itself never stops on a bad read.
func run(opts *options, stdout, stderr io.Writer) error {
	monitoring.SetVerbose(*verbose)

	session := uuid.NewString()
	logger := log.New(stderr, "", log.LstdFlags)
	monitoring.SetLogger(logger.Printf)

	src, err := snapshot.NewSource(opts.Path, opts.ExpectedCount, nil)
	if err != nil {
		return err
	}

	sink, err := buildSink(opts, session, logger, stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wake <-chan struct{}
	if opts.Notify {
		wake, err = monitor.NotifyWake(ctx, opts.Path, logger)
		if err != nil {
			logger.Printf("filesystem notifications unavailable, polling only: %v", err)
			wake = nil
		}
	}

	mon, err := monitor.New(monitor.Config{
		Source:        src,
		Sink:          sink,
		Bounds:        opts.Bounds,
		Interval:      opts.Interval,
		Wake:          wake,
		SkipWarnAfter: opts.SkipWarnAfter,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	logger.Printf("session %s: watching %s for %d particles, sinks=%s", session, opts.Path, opts.ExpectedCount, strings.Join(opts.Sinks, ","))
	return mon.Run(ctx)
}

// buildSink constructs the requested sinks, fanning out when more than one
// is named.
func buildSink(opts *options, session string, logger *log.Logger, stdout io.Writer) (render.Sink, error) {
	var sinks render.Multi
	for _, name := range opts.Sinks {
		switch name {
		case config.SinkTerm:
			cols, rows, redraw := termGeometry(stdout)
			sinks = append(sinks, render.NewTermSink(render.TermConfig{
				Out:     stdout,
				Columns: cols,
				Rows:    rows,
				Clear:   redraw,
				Session: session,
			}))
		case config.SinkPNG:
			s, err := render.NewPlotSink(render.PlotConfig{OutputDir: opts.OutputDir, Session: session})
			if err != nil {
				return nil, err
			}
			logger.Printf("png sink writing %s", s.Path())
			sinks = append(sinks, s)
		case config.SinkHTML:
			s, err := render.NewChartSink(render.ChartConfig{
				OutputDir:      opts.OutputDir,
				RefreshSeconds: opts.Refresh,
				Session:        session,
			})
			if err != nil {
				return nil, err
			}
			logger.Printf("html sink writing %s", s.Path())
			sinks = append(sinks, s)
		case config.SinkLog:
			sinks = append(sinks, render.NewLogSink(logger, session))
		default:
			return nil, fmt.Errorf("unknown sink %q", name)
		}
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sinks, nil
}

// termGeometry sizes the terminal plot to the attached terminal, leaving
// room for the border, title and footer. Non-terminal writers get the
// default size and no screen clearing.
func termGeometry(w io.Writer) (cols, rows int, redraw bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(f.Fd()) {
		return 0, 0, false
	}
	width, height, err := term.GetSize(f.Fd())
	if err != nil {
		return 0, 0, true
	}
	cols, rows = width-2, height-6
	if cols < 10 || rows < 5 {
		return 0, 0, true
	}
	return cols, rows, true
}
