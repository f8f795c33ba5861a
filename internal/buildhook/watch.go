package buildhook

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// Hook runs a report every time the watched image is relinked. The linker
// writes the output file in bursts, so write events are debounced and the
// report only runs once they settle.
type Hook struct {
	elfPath string
	run     func(elfPath string)
	watcher *fsnotify.Watcher
	stop    chan struct{}
	done    chan struct{}
}

// New starts watching the directory containing elfPath. run is invoked
// after writes to the image have settled for the given duration.
func New(elfPath string, settle time.Duration, run func(elfPath string)) (*Hook, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	elfPath = filepath.Clean(elfPath)
	if err := watcher.Add(filepath.Dir(elfPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(elfPath), err)
	}

	h := &Hook{
		elfPath: elfPath,
		run:     run,
		watcher: watcher,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go h.loop(debounce.New(settle))
	slog.Debug("Watching for relinked image", "path", elfPath)
	return h, nil
}

func (h *Hook) loop(settled func(func())) {
	defer close(h.done)
	for {
		select {
		case <-h.stop:
			return
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != h.elfPath {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			settled(func() { h.run(h.elfPath) })
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Watcher error", "error", err)
		}
	}
}

// Close stops the watch loop and releases the underlying watcher.
func (h *Hook) Close() error {
	close(h.stop)
	err := h.watcher.Close()
	<-h.done
	return err
}
