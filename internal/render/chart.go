package render

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/spacegraph/internal/fsutil"
	"github.com/banshee-data/spacegraph/internal/snapshot"
)

// ChartConfig configures a ChartSink.
type ChartConfig struct {
	// OutputDir receives the HTML file.
	OutputDir string
	// FileName defaults to "spacegraph.html".
	FileName string
	// RefreshSeconds adds a meta refresh so an open browser tab follows the
	// monitor. Zero disables it.
	RefreshSeconds int
	// AssetsHost overrides where the echarts script is loaded from.
	AssetsHost string
	// Title defaults to DefaultTitle.
	Title string
	// Session is shown in the chart subtitle.
	Session string
	// FS defaults to the OS filesystem.
	FS fsutil.FileSystem
}

// ChartSink renders each snapshot as a standalone echarts scatter page.
type ChartSink struct {
	cfg    ChartConfig
	path   string
	frames int
}

// NewChartSink creates the output directory and returns a ChartSink.
func NewChartSink(cfg ChartConfig) (*ChartSink, error) {
	if cfg.FS == nil {
		cfg.FS = fsutil.OSFileSystem{}
	}
	if cfg.FileName == "" {
		cfg.FileName = "spacegraph.html"
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
	return &ChartSink{cfg: cfg, path: filepath.Join(cfg.OutputDir, cfg.FileName)}, nil
}

// Path returns the HTML file written by Present.
func (s *ChartSink) Path() string { return s.path }

// Present renders the chart page and replaces the HTML file.
func (s *ChartSink) Present(snap snapshot.Snapshot, bounds snapshot.ViewBounds) error {
	s.frames++

	data := make([]opts.ScatterData, 0, len(snap))
	for _, p := range snap {
		if bounds.Contains(p) {
			data = append(data, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
		}
	}

	initOpts := opts.Initialization{PageTitle: "spacegraph", Width: "900px", Height: "900px"}
	if s.cfg.AssetsHost != "" {
		initOpts.AssetsHost = s.cfg.AssetsHost
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: s.cfg.Title, Subtitle: subtitle(s.cfg.Session, s.frames, snap, bounds)}),
		charts.WithAnimation(false),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Min: bounds.XMin, Max: bounds.XMax, Name: "X-Coordinate", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: bounds.YMin, Max: bounds.YMax, Name: "Y-Coordinate", NameLocation: "middle", NameGap: 40}),
	)
	if s.cfg.RefreshSeconds > 0 {
		scatter.AddCustomizedHeaders(fmt.Sprintf(`<meta http-equiv="refresh" content="%d">`, s.cfg.RefreshSeconds))
	}
	scatter.AddSeries("Particles", data,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#1f77b4"}),
	)

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("chart sink: render: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.cfg.FS, s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("chart sink: write %s: %w", s.path, err)
	}
	return nil
}
