package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spacegraph/internal/snapshot"
)

func TestWriteFrame_ProducesConsistentSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "particles_output.dat")
	gen := snapshot.NewSyntheticGenerator(50, 1000, 1)

	// A larger frame followed by a smaller one must not leave stale lines.
	require.NoError(t, writeFrame(path, snapshot.NewSyntheticGenerator(80, 1000, 2).Next(), 16))
	want := gen.Next()
	require.NoError(t, writeFrame(path, want, 16))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := snapshot.Parse(data, 50)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteFrame_BadPath(t *testing.T) {
	err := writeFrame(filepath.Join(t.TempDir(), "missing", "p.dat"), snapshot.Snapshot{{X: 1, Y: 1}}, 16)
	require.Error(t, err)
}

type countingWriter struct {
	bytes.Buffer
	writes int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.Buffer.Write(p)
}

func TestWriteChunked_SmallerChunkMeansMoreWrites(t *testing.T) {
	data := snapshot.Format(snapshot.NewSyntheticGenerator(1000, 15000, 3).Next())

	tests := []struct {
		chunk     int
		wantCalls int
	}{
		{chunk: 16, wantCalls: (len(data) + 15) / 16},
		{chunk: 4096, wantCalls: (len(data) + 4095) / 4096},
		{chunk: 0, wantCalls: 1},
		{chunk: len(data) * 2, wantCalls: 1},
	}
	for _, tt := range tests {
		w := &countingWriter{}
		calls, err := writeChunked(w, data, tt.chunk)
		require.NoError(t, err)
		require.Equal(t, tt.wantCalls, calls, "chunk=%d", tt.chunk)
		require.Equal(t, tt.wantCalls, w.writes, "chunk=%d", tt.chunk)
		require.Equal(t, data, w.Bytes(), "chunk=%d", tt.chunk)
	}
	require.Greater(t, (len(data)+15)/16, (len(data)+4095)/4096)
}

type failingWriter struct{ after int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after == 0 {
		return 0, errors.New("disk full")
	}
	w.after--
	return len(p), nil
}

func TestWriteChunked_StopsOnError(t *testing.T) {
	calls, err := writeChunked(&failingWriter{after: 2}, bytes.Repeat([]byte("x"), 100), 10)
	require.Error(t, err)
	require.Equal(t, 2, calls)
}
