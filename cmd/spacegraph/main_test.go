package main

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spacegraph/internal/render"
	"github.com/banshee-data/spacegraph/internal/snapshot"
)

// withFlags sets package flag values for one test and restores them after.
func withFlags(t *testing.T, apply func()) {
	t.Helper()
	saved := struct {
		path, config, sink, out string
		count, refresh, skip    int
		interval                time.Duration
		xmin, xmax, ymin, ymax  float64
		notify                  bool
	}{*pathFlag, *configFile, *sinkList, *outDir, *countFlag, *refresh, *skipWarn, *interval, *xMin, *xMax, *yMin, *yMax, *notify}
	t.Cleanup(func() {
		*pathFlag, *configFile, *sinkList, *outDir = saved.path, saved.config, saved.sink, saved.out
		*countFlag, *refresh, *skipWarn = saved.count, saved.refresh, saved.skip
		*interval = saved.interval
		*xMin, *xMax, *yMin, *yMax = saved.xmin, saved.xmax, saved.ymin, saved.ymax
		*notify = saved.notify
	})
	apply()
}

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool)
	for _, n := range names {
		m[n] = true
	}
	return m
}

func TestFlagDefaults(t *testing.T) {
	assert.Equal(t, time.Second, *interval)
	assert.Equal(t, -20000.0, *xMin)
	assert.Equal(t, 20000.0, *xMax)
	assert.Equal(t, -20000.0, *yMin)
	assert.Equal(t, 20000.0, *yMax)
	assert.Equal(t, "term", *sinkList)
	assert.Equal(t, ".", *outDir)
	assert.False(t, *notify)
	assert.Zero(t, *skipWarn)
}

func TestResolveOptions_Positional(t *testing.T) {
	opts, err := resolveOptions(setOf(), []string{"particles_output.dat", "10000"})
	require.NoError(t, err)

	assert.Equal(t, "particles_output.dat", opts.Path)
	assert.Equal(t, 10000, opts.ExpectedCount)
	assert.Equal(t, time.Second, opts.Interval)
	assert.Equal(t, snapshot.DefaultViewBounds(), opts.Bounds)
	assert.Equal(t, []string{"term"}, opts.Sinks)
	assert.Equal(t, ".", opts.OutputDir)
	assert.False(t, opts.Notify)
}

func TestResolveOptions_Flags(t *testing.T) {
	withFlags(t, func() {
		*pathFlag = "/sim/p.dat"
		*countFlag = 5
		*interval = 200 * time.Millisecond
		*xMin, *xMax = -1, 1
		*sinkList = "png, log"
		*skipWarn = 4
		*notify = true
	})

	opts, err := resolveOptions(setOf("path", "count", "interval", "xmin", "xmax", "sink", "skip-warn", "notify"), nil)
	require.NoError(t, err)

	assert.Equal(t, "/sim/p.dat", opts.Path)
	assert.Equal(t, 5, opts.ExpectedCount)
	assert.Equal(t, 200*time.Millisecond, opts.Interval)
	assert.Equal(t, snapshot.ViewBounds{XMin: -1, XMax: 1, YMin: -20000, YMax: 20000}, opts.Bounds)
	assert.Equal(t, []string{"png", "log"}, opts.Sinks)
	assert.Equal(t, 4, opts.SkipWarnAfter)
	assert.True(t, opts.Notify)
}

func TestResolveOptions_UnsetFlagsDoNotOverrideConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "monitor.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{
  "path": "from-config.dat",
  "expected_count": 7,
  "poll_interval": "3s",
  "y_max": 50,
  "sinks": ["html"]
}`), 0644))

	withFlags(t, func() {
		*configFile = cfgPath
		*interval = 5 * time.Second
		*yMax = 99
	})

	// Only -interval was given on the command line.
	opts, err := resolveOptions(setOf("config", "interval"), nil)
	require.NoError(t, err)

	assert.Equal(t, "from-config.dat", opts.Path)
	assert.Equal(t, 7, opts.ExpectedCount)
	assert.Equal(t, 5*time.Second, opts.Interval)
	assert.Equal(t, 50.0, opts.Bounds.YMax)
	assert.Equal(t, []string{"html"}, opts.Sinks)

	// Positional arguments win over the file.
	opts, err = resolveOptions(setOf("config"), []string{"cli.dat", "9"})
	require.NoError(t, err)
	assert.Equal(t, "cli.dat", opts.Path)
	assert.Equal(t, 9, opts.ExpectedCount)
}

func TestResolveOptions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		apply   func()
		set     []string
		args    []string
		wantErr string
	}{
		{name: "no arguments", wantErr: "path to monitor is required"},
		{name: "one argument", args: []string{"p.dat"}, wantErr: "got 1 argument(s)"},
		{name: "three arguments", args: []string{"p.dat", "3", "x"}, wantErr: "got 3 argument(s)"},
		{name: "count not a number", args: []string{"p.dat", "lots"}, wantErr: `"lots" is not an integer`},
		{name: "zero count", args: []string{"p.dat", "0"}, wantErr: "must be a positive integer"},
		{name: "negative count", args: []string{"p.dat", "-3"}, wantErr: "must be a positive integer"},
		{
			name:    "zero interval",
			apply:   func() { *interval = 0 },
			set:     []string{"interval"},
			args:    []string{"p.dat", "3"},
			wantErr: "interval must be positive",
		},
		{
			name:    "inverted bounds",
			apply:   func() { *xMin, *xMax = 5, -5 },
			set:     []string{"xmin", "xmax"},
			args:    []string{"p.dat", "3"},
			wantErr: "x range must satisfy min < max",
		},
		{
			name:    "unknown sink",
			apply:   func() { *sinkList = "term,vr" },
			set:     []string{"sink"},
			args:    []string{"p.dat", "3"},
			wantErr: `unknown sink "vr"`,
		},
		{
			name:    "negative skip warn",
			apply:   func() { *skipWarn = -1 },
			set:     []string{"skip-warn"},
			args:    []string{"p.dat", "3"},
			wantErr: "skip-warn must be non-negative",
		},
		{
			name:    "missing config file",
			apply:   func() { *configFile = "/does/not/exist.json" },
			set:     []string{"config"},
			args:    []string{"p.dat", "3"},
			wantErr: "failed to stat config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withFlags(t, func() {
				if tt.apply != nil {
					tt.apply()
				}
			})
			_, err := resolveOptions(setOf(tt.set...), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildSink(t *testing.T) {
	logger := log.New(&bytes.Buffer{}, "", 0)
	dir := t.TempDir()

	single, err := buildSink(&options{Sinks: []string{"log"}}, "s", logger, &bytes.Buffer{})
	require.NoError(t, err)
	assert.IsType(t, &render.LogSink{}, single)

	multi, err := buildSink(&options{Sinks: []string{"term", "png", "html", "log"}, OutputDir: dir, Refresh: 1}, "s", logger, &bytes.Buffer{})
	require.NoError(t, err)
	require.IsType(t, render.Multi{}, multi)
	assert.Len(t, multi.(render.Multi), 4)

	require.NoError(t, multi.Present(snapshot.Snapshot{{X: 1, Y: 2}}, snapshot.DefaultViewBounds()))
	assert.FileExists(t, filepath.Join(dir, "spacegraph.png"))
	assert.FileExists(t, filepath.Join(dir, "spacegraph.html"))

	_, err = buildSink(&options{Sinks: []string{"hologram"}}, "s", logger, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestTermGeometry_NonTerminal(t *testing.T) {
	cols, rows, redraw := termGeometry(&bytes.Buffer{})
	assert.Zero(t, cols)
	assert.Zero(t, rows)
	assert.False(t, redraw)
}
