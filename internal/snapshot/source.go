package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/banshee-data/spacegraph/internal/fsutil"
)

// Source reads snapshots from one monitored path. It holds no mutable state;
// the last observed modification time belongs to the caller.
type Source struct {
	fs       fsutil.FileSystem
	path     string
	expected int
}

// NewSource creates a Source for path. expected is the number of particle
// lines that make up one complete snapshot. A nil fsys uses the OS filesystem.
func NewSource(path string, expected int, fsys fsutil.FileSystem) (*Source, error) {
	if path == "" {
		return nil, errors.New("snapshot source: path is required")
	}
	if expected <= 0 {
		return nil, fmt.Errorf("snapshot source: expected count must be positive, got %d", expected)
	}
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	return &Source{fs: fsys, path: path, expected: expected}, nil
}

// Path returns the monitored path.
func (s *Source) Path() string { return s.path }

// ExpectedCount returns the number of lines in a complete snapshot.
func (s *Source) ExpectedCount() int { return s.expected }

// ProbeChanged stats the path and reports whether its modification time
// differs from last. A missing file is not an error: the producer may not
// have created it yet, so the result is (zero, false, nil).
func (s *Source) ProbeChanged(last time.Time) (time.Time, bool, error) {
	info, err := s.fs.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("stat %s: %w", s.path, err)
	}
	if info.IsDir() {
		return time.Time{}, false, fmt.Errorf("stat %s: is a directory", s.path)
	}
	mod := info.ModTime()
	return mod, !mod.Equal(last), nil
}

// ReadConsistent reads the whole file and returns a snapshot only if it
// passes the consistency check. Torn reads return an error wrapping
// ErrNoSnapshot; a file that vanished between probe and read returns an error
// wrapping fs.ErrNotExist. Both satisfy IsTransient. Any other error is an
// operational I/O failure.
func (s *Source) ReadConsistent() (Snapshot, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return Parse(data, s.expected)
}
