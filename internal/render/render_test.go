package render

import (
	"bytes"
	"errors"
	"image/png"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spacegraph/internal/fsutil"
	"github.com/banshee-data/spacegraph/internal/snapshot"
)

var (
	testBounds = snapshot.ViewBounds{XMin: -10, XMax: 10, YMin: -10, YMax: 10}
	testSnap   = snapshot.Snapshot{{X: -5, Y: 5}, {X: 0, Y: 0}, {X: 5, Y: -5}, {X: 50, Y: 0}}
)

func TestMulti_CallsEverySinkAndJoinsErrors(t *testing.T) {
	var calls []string
	boom := errors.New("boom")

	m := Multi{
		SinkFunc(func(snapshot.Snapshot, snapshot.ViewBounds) error {
			calls = append(calls, "a")
			return boom
		}),
		SinkFunc(func(snapshot.Snapshot, snapshot.ViewBounds) error {
			calls = append(calls, "b")
			return nil
		}),
	}

	err := m.Present(testSnap, testBounds)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, calls)

	assert.NoError(t, Multi{}.Present(testSnap, testBounds))
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSink(log.New(&buf, "", 0), "sess-1")

	require.NoError(t, s.Present(testSnap, testBounds))
	require.NoError(t, s.Present(testSnap, testBounds))

	assert.Equal(t, 2, s.Frames())
	out := buf.String()
	assert.Contains(t, out, "[sess-1] frame 1: n=4")
	assert.Contains(t, out, "[sess-1] frame 2:")
	assert.Contains(t, out, "clipped=1")
}

func TestRasterize(t *testing.T) {
	bounds := snapshot.ViewBounds{XMin: 0, XMax: 4, YMin: 0, YMax: 2}

	snap := snapshot.Snapshot{
		{X: 0, Y: 2},     // top-left
		{X: 4, Y: 0},     // bottom-right edge clamps into last cell
		{X: 2.5, Y: 0.5}, // bottom row, third column
		{X: 2.6, Y: 0.6}, // same cell
		{X: 9, Y: 9},     // clipped
	}
	got := Rasterize(snap, bounds, 4, 2)

	assert.Equal(t, []string{
		".   ",
		"  :.",
	}, got)
}

func TestRasterize_DensitySaturates(t *testing.T) {
	bounds := snapshot.ViewBounds{XMin: 0, XMax: 1, YMin: 0, YMax: 1}
	snap := make(snapshot.Snapshot, 40)
	for i := range snap {
		snap[i] = snapshot.Point{X: 0.5, Y: 0.5}
	}
	assert.Equal(t, []string{"@"}, Rasterize(snap, bounds, 1, 1))
}

func TestRasterize_EmptyGrid(t *testing.T) {
	assert.Nil(t, Rasterize(testSnap, testBounds, 0, 5))
	assert.Nil(t, Rasterize(testSnap, testBounds, 5, -1))
}

func TestTermSink_Present(t *testing.T) {
	var buf bytes.Buffer
	s := NewTermSink(TermConfig{Out: &buf, Columns: 20, Rows: 6, Clear: true, Session: "sess-2"})

	require.NoError(t, s.Present(testSnap, testBounds))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, clearScreen))
	assert.Contains(t, out, DefaultTitle)
	assert.Contains(t, out, "session=sess-2 frame=1 particles=4 clipped=1")
	assert.Contains(t, out, "x [-10, 10]  y [-10, 10]")
}

func TestTermSink_Defaults(t *testing.T) {
	s := NewTermSink(TermConfig{})
	assert.Equal(t, 72, s.cfg.Columns)
	assert.Equal(t, 28, s.cfg.Rows)
	assert.NotNil(t, s.cfg.Out)
	assert.Equal(t, DefaultTitle, s.cfg.Title)
}

func TestPlotSink_WritesPNG(t *testing.T) {
	dir := t.TempDir()
	s, err := NewPlotSink(PlotConfig{OutputDir: filepath.Join(dir, "frames"), Session: "sess-3"})
	require.NoError(t, err)

	require.NoError(t, s.Present(testSnap, testBounds))

	data, err := fsutil.OSFileSystem{}.ReadFile(s.Path())
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)

	// Second frame replaces the first.
	require.NoError(t, s.Present(snapshot.Snapshot{{X: 1, Y: 1}}, testBounds))
	_, err = fsutil.OSFileSystem{}.Stat(s.Path())
	assert.NoError(t, err)
}

func TestPlotSink_AllPointsClipped(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	s, err := NewPlotSink(PlotConfig{OutputDir: "/out", FS: mfs})
	require.NoError(t, err)

	require.NoError(t, s.Present(snapshot.Snapshot{{X: 99, Y: 99}}, testBounds))
	data, err := mfs.ReadFile("/out/spacegraph.png")
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestPlotSink_ReplacesFileThroughTempFile(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	s, err := NewPlotSink(PlotConfig{OutputDir: "/out", FS: mfs})
	require.NoError(t, err)

	require.NoError(t, s.Present(testSnap, testBounds))
	require.NoError(t, s.Present(testSnap, testBounds))

	// One write per frame, always to the temp name, then a rename.
	assert.Equal(t, 2, mfs.Writes())
	_, err = mfs.Stat("/out/.spacegraph.png.tmp")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = mfs.Stat(s.Path())
	assert.NoError(t, err)
}

func TestChartSink_WritesHTML(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	s, err := NewChartSink(ChartConfig{OutputDir: "/out", FS: mfs, RefreshSeconds: 2, Session: "sess-4"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "spacegraph.html"), s.Path())

	require.NoError(t, s.Present(testSnap, testBounds))

	data, err := mfs.ReadFile(s.Path())
	require.NoError(t, err)
	page := string(data)
	assert.Contains(t, page, `<meta http-equiv="refresh" content="2">`)
	assert.Contains(t, page, DefaultTitle)
	assert.Contains(t, page, "session=sess-4 frame=1")
	assert.Contains(t, page, "Particles")
}

func TestChartSink_NoRefreshByDefault(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	s, err := NewChartSink(ChartConfig{OutputDir: "/out", FS: mfs})
	require.NoError(t, err)

	require.NoError(t, s.Present(testSnap, testBounds))
	data, err := mfs.ReadFile(s.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "http-equiv")
}

type failingFS struct {
	*fsutil.MemoryFileSystem
}

func (failingFS) WriteFile(string, []byte, fs.FileMode) error { return fs.ErrPermission }

func TestChartSink_WriteFailure(t *testing.T) {
	s, err := NewChartSink(ChartConfig{OutputDir: "/out", FS: failingFS{fsutil.NewMemoryFileSystem()}})
	require.NoError(t, err)

	err = s.Present(testSnap, testBounds)
	assert.ErrorIs(t, err, fs.ErrPermission)
}
