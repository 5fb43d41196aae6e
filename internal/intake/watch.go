package intake

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DropHandler receives each video file dropped into a watched directory.
type DropHandler func(ctx context.Context, path string) error

// Watcher turns files created in a drop directory into intake events.
type Watcher struct {
	dir     string
	handler DropHandler
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	// Settle delays handling so the writer can finish the file.
	Settle time.Duration
}

// NewWatcher starts watching dir. Call Run to deliver events and Close when done.
func NewWatcher(dir string, handler DropHandler, logger *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("add watch path %q: %w", dir, err)
	}

	return &Watcher{
		dir:     dir,
		handler: handler,
		logger:  logger,
		watcher: w,
		Settle:  500 * time.Millisecond,
	}, nil
}

// Run delivers dropped video files to the handler, one at a time, until ctx ends.
func (w *Watcher) Run(ctx context.Context) error {
	w.log(slog.LevelInfo, "drop watcher started", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !IsVideo(event.Name) {
				w.log(slog.LevelDebug, "ignoring non-video drop", "path", event.Name)
				continue
			}

			if w.Settle > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(w.Settle):
				}
			}

			w.log(slog.LevelInfo, "video dropped", "path", event.Name)
			if err := w.handler(ctx, event.Name); err != nil {
				w.log(slog.LevelWarn, "drop handling failed", "path", event.Name, "error", err.Error())
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log(slog.LevelWarn, "watcher error", "error", err.Error())
		}
	}
}

// Close stops the underlying file system watch.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) log(level slog.Level, msg string, args ...any) {
	if w.logger == nil {
		return
	}
	w.logger.Log(context.Background(), level, msg, args...)
}
