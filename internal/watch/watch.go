// Package watch recompiles a source file whenever it changes on disk.
// Editor save patterns (rename-and-replace, rapid double writes) are
// absorbed by re-adding the path and debouncing events.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before a
// rebuild fires.
const DefaultDebounce = 300 * time.Millisecond

// Watcher triggers a rebuild callback for one source path.
type Watcher struct {
	Path     string
	Debounce time.Duration
	Log      *slog.Logger

	// OnChange runs after the debounce window closes. Errors are logged
	// and watching continues.
	OnChange func(ctx context.Context, path string) error
}

// Run watches until the context is cancelled. The callback fires once
// immediately so the output exists before the first edit.
func (w *Watcher) Run(ctx context.Context) error {
	if w.Debounce <= 0 {
		w.Debounce = DefaultDebounce
	}
	if w.Log == nil {
		w.Log = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// Watch the directory: editors replace files on save, which drops
	// a watch on the file itself.
	dir := filepath.Dir(w.Path)
	if err := fw.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(w.Path)

	w.rebuild(ctx)

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.Debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Log.Warn("watch error", "error", err)
		case <-timerC:
			timer = nil
			timerC = nil
			w.rebuild(ctx)
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context) {
	start := time.Now()
	if err := w.OnChange(ctx, w.Path); err != nil {
		w.Log.Error("rebuild failed", "path", w.Path, "error", err)
		return
	}
	w.Log.Info("rebuilt", "path", w.Path, "duration_ms", time.Since(start).Milliseconds())
}
