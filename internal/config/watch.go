package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/squad-tactics/internal/ai"
)

const reloadDebounce = 100 * time.Millisecond

// WatchTuning emits a freshly loaded tuning each time the file at path
// changes. Files that fail to parse are logged and skipped. The channel is
// closed when ctx is done.
func WatchTuning(ctx context.Context, path string) (<-chan *ai.Tuning, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	out := make(chan *ai.Tuning, 1)
	go func() {
		defer close(out)
		defer w.Close()

		target := filepath.Clean(path)
		var timer <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				timer = time.After(reloadDebounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Str("path", path).Msg("Tuning watcher error")
			case <-timer:
				timer = nil
				t, err := LoadTuning(path)
				if err != nil {
					log.Warn().Err(err).Str("path", path).Msg("Ignoring invalid tuning")
					continue
				}
				select {
				case out <- t:
				case <-ctx.Done():
					return
				}
				log.Info().Str("path", path).Msg("Tuning file changed")
			}
		}
	}()
	return out, nil
}
