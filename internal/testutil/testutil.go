// Package testutil provides shared particle-file fixtures for tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/spacegraph/internal/fsutil"
)

// Lines returns n well-formed particle lines, each newline terminated. Line i
// holds the point (i, -i).
func Lines(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d.0 %d.0\n", i, -i)
	}
	return b.String()
}

// Torn returns the first keep lines of Lines(n), simulating a reader that
// caught the producer partway through a rewrite.
func Torn(n, keep int) string {
	if keep > n {
		keep = n
	}
	return Lines(keep)
}

// WriteParticles advances the memory filesystem clock by one second and
// writes content to path, so every call produces a new modification time.
func WriteParticles(t *testing.T, fsys *fsutil.MemoryFileSystem, path, content string) {
	t.Helper()
	fsys.Tick(time.Second)
	if err := fsys.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
