package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups bursts of events, such as a large PDF being
// copied in several writes, into one callback.
const DefaultDebounce = 2 * time.Second

// Watcher calls back when lesson files appear in a directory.
type Watcher struct {
	dir      string
	lister   *Lister
	debounce time.Duration
	log      *slog.Logger
}

func NewWatcher(dir string, lister *Lister, debounce time.Duration, log *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{dir: dir, lister: lister, debounce: debounce, log: log}
}

// Watch blocks until ctx is done, invoking onChange once per quiet
// period after matching files were created or written. Callback errors
// are logged and watching continues.
func (w *Watcher) Watch(ctx context.Context, onChange func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.log.Info("watching for new lessons", "dir", w.dir)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.lister.Matches(filepath.Base(event.Name)) {
				continue
			}
			w.log.Debug("source changed", "file", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)

		case <-timer.C:
			if err := onChange(ctx); err != nil {
				w.log.Error("re-ingestion failed", "error", err)
			}
		}
	}
}
