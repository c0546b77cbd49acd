// Command gen-particles overwrites a file with synthetic particle positions,
// truncating and rewriting it in place each frame the way a simulation would.
// Readers that poll the file will regularly catch it half written.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/spacegraph/internal/snapshot"
)

func main() {
	output := flag.String("o", "particles_output.dat", "output path")
	count := flag.Int("n", 10000, "particles per frame")
	frames := flag.Int("frames", 0, "number of frames (0 runs until interrupted)")
	interval := flag.Duration("interval", 500*time.Millisecond, "delay between frames")
	radius := flag.Float64("radius", 15000, "maximum orbit radius")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	chunk := flag.Int("chunk", 4096, "bytes per write call; smaller values tear more often (0 writes each frame at once)")
	flag.Parse()

	if *count <= 0 {
		log.Fatalf("-n must be positive, got %d", *count)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen := snapshot.NewSyntheticGenerator(*count, *radius, *seed)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for i := 0; *frames == 0 || i < *frames; i++ {
		if err := writeFrame(*output, gen.Next(), *chunk); err != nil {
			log.Fatalf("frame %d: %v", i+1, err)
		}
		if (i+1)%10 == 0 {
			log.Printf("%d frames written to %s", i+1, *output)
		}
		select {
		case <-ctx.Done():
			log.Printf("stopped after %d frames", i+1)
			return
		case <-ticker.C:
		}
	}
	log.Printf("✓ Wrote %d frames to %s", *frames, *output)
}

// writeFrame truncates path and streams the snapshot into it.
func writeFrame(path string, snap snapshot.Snapshot, chunk int) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := writeChunked(f, snapshot.Format(snap), chunk); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeChunked issues one Write per chunk bytes of data and returns the
// number of calls made. Each call is a separate write(2), so a concurrent
// reader can observe any prefix boundary.
func writeChunked(w io.Writer, data []byte, chunk int) (int, error) {
	if chunk <= 0 {
		chunk = len(data)
	}
	calls := 0
	for len(data) > 0 {
		n := min(chunk, len(data))
		if _, err := w.Write(data[:n]); err != nil {
			return calls, err
		}
		calls++
		data = data[n:]
	}
	return calls, nil
}
