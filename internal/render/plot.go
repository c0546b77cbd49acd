package render

import (
	"bytes"
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/spacegraph/internal/fsutil"
	"github.com/banshee-data/spacegraph/internal/snapshot"
)

// particleBlue is matplotlib's "tab:blue".
var particleBlue = color.RGBA{R: 31, G: 119, B: 180, A: 255}

// PlotConfig configures a PlotSink.
type PlotConfig struct {
	// OutputDir receives the PNG file.
	OutputDir string
	// FileName defaults to "spacegraph.png".
	FileName string
	// Width and Height default to 8x8 inches.
	Width, Height vg.Length
	// Title defaults to DefaultTitle.
	Title string
	// Session is shown in the plot subtitle.
	Session string
	// FS defaults to the OS filesystem.
	FS fsutil.FileSystem
}

// PlotSink renders each snapshot as a PNG scatter plot with fixed axes. The
// file is replaced atomically so an image viewer never loads half a frame.
type PlotSink struct {
	cfg    PlotConfig
	path   string
	frames int
}

// NewPlotSink creates the output directory and returns a PlotSink.
func NewPlotSink(cfg PlotConfig) (*PlotSink, error) {
	if cfg.FS == nil {
		cfg.FS = fsutil.OSFileSystem{}
	}
	if cfg.FileName == "" {
		cfg.FileName = "spacegraph.png"
	}
	if cfg.Width <= 0 {
		cfg.Width = 8 * vg.Inch
	}
	if cfg.Height <= 0 {
		cfg.Height = 8 * vg.Inch
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if err := cfg.FS.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &PlotSink{cfg: cfg, path: filepath.Join(cfg.OutputDir, cfg.FileName)}, nil
}

// Path returns the PNG file written by Present.
func (s *PlotSink) Path() string { return s.path }

// Present draws the snapshot and replaces the PNG file.
func (s *PlotSink) Present(snap snapshot.Snapshot, bounds snapshot.ViewBounds) error {
	s.frames++

	p := plot.New()
	p.Title.Text = s.cfg.Title + "\n" + subtitle(s.cfg.Session, s.frames, snap, bounds)
	p.X.Label.Text = "X-Coordinate"
	p.Y.Label.Text = "Y-Coordinate"
	p.Add(plotter.NewGrid())

	// Points outside the window are clipped rather than allowed to stretch
	// the axes.
	pts := make(plotter.XYs, 0, len(snap))
	for _, pt := range snap {
		if bounds.Contains(pt) {
			pts = append(pts, plotter.XY{X: pt.X, Y: pt.Y})
		}
	}
	if len(pts) > 0 {
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("plot sink: scatter: %w", err)
		}
		sc.GlyphStyle.Color = particleBlue
		sc.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(sc)
		p.Legend.Add("Particles", sc)
		p.Legend.Top = true
	}

	// Fix the axis limits after Add, which widens them to fit the data.
	p.X.Min, p.X.Max = bounds.XMin, bounds.XMax
	p.Y.Min, p.Y.Max = bounds.YMin, bounds.YMax

	w, err := p.WriterTo(s.cfg.Width, s.cfg.Height, "png")
	if err != nil {
		return fmt.Errorf("plot sink: canvas: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return fmt.Errorf("plot sink: encode: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.cfg.FS, s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("plot sink: write %s: %w", s.path, err)
	}
	return nil
}
