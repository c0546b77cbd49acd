package monitor

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// NotifyWake watches the directory containing path and returns a channel that
// receives whenever path is written, created, renamed or removed. Bursts of
// events collapse into one pending signal, because the monitor only ever
// wants the latest state. The directory is watched rather than the file so
// that a file created after startup, or replaced by rename, is still seen.
//
// The channel is closed when ctx is cancelled or the watcher fails.
func NotifyWake(ctx context.Context, path string, logger *log.Logger) (<-chan struct{}, error) {
	if logger == nil {
		logger = log.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("notify: %w", err)
	}
	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("notify: watch %s: %w", filepath.Dir(target), err)
	}

	wake := make(chan struct{}, 1)
	go func() {
		defer close(wake)
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
					continue
				}
				select {
				case wake <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Printf("monitor: notify error: %v", err)
			}
		}
	}()
	return wake, nil
}
