package documents

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher registers files dropped into the upload directory outside of
// the upload endpoint. Invalid files are logged and skipped.
type Watcher struct {
	logger   *zerolog.Logger
	registry *Registry
	watcher  *fsnotify.Watcher
}

func NewWatcher(logger *zerolog.Logger, registry *Registry) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		logger:   logger,
		registry: registry,
		watcher:  fsWatcher,
	}, nil
}

// Start watches the upload directory until the context is cancelled.
func (w *Watcher) Start(ctx context.Context, dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go w.run(ctx)
	return nil
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			// Editors and copies produce partial-write noise; hidden
			// files are never documents.
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}

			doc, err := w.registry.Register(ctx, event.Name)
			if err != nil {
				w.logger.Warn().Err(err).Str("path", event.Name).Msg("skipping dropped file")
				continue
			}
			if doc != nil {
				w.logger.Info().Str("path", event.Name).Msg("dropped file registered")
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("watcher error")
		}
	}
}
