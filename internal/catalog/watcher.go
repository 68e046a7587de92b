package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads registry templates when files in the templates directory
// change.
type Watcher struct {
	registry *Registry
	watcher  *fsnotify.Watcher
}

func NewWatcher(registry *Registry) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := w.Add(registry.Dir()); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return &Watcher{registry: registry, watcher: w}, nil
}

// Run blocks until ctx is done or the underlying watcher closes.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			slog.Error("catalog: watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !isTemplateFile(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	if err := w.registry.Reload(event.Name); err != nil {
		slog.Warn("catalog: template unavailable", "path", event.Name, "error", err)
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
