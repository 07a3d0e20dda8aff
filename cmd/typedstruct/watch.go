package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// fileWatcher calls onChange whenever the watched file is written or
// recreated.
type fileWatcher struct {
	path     string
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange func()
}

func newFileWatcher(path string, logger zerolog.Logger, onChange func()) (*fileWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory (more reliable for editors that do atomic saves)
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	return &fileWatcher{path: absPath, logger: logger, watcher: watcher, onChange: onChange}, nil
}

// run blocks until ctx is done or the watcher fails.
func (w *fileWatcher) run(ctx context.Context) error {
	defer w.watcher.Close()
	filename := filepath.Base(w.path)
	w.logger.Info().Str("path", w.path).Msg("watching file for changes")

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			// atomic saves show up as Create
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.logger.Debug().Str("event", event.Op.String()).Str("file", event.Name).Msg("file changed")
				w.onChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("file watcher error")
		case <-ctx.Done():
			return nil
		}
	}
}
