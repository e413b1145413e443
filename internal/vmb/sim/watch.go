package sim

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// catalogDebounce coalesces the burst of events editors emit on save.
const catalogDebounce = 200 * time.Millisecond

// WatchCatalog reloads the catalog at path whenever it changes and reconciles
// d against it, so editing the file plugs cameras in and out. It blocks until
// ctx is cancelled. The directory is watched rather than the file so that
// replace-on-save editors are handled.
func WatchCatalog(ctx context.Context, d *Driver, path string, log zerolog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	log.Debug().Str("path", abs).Msg("watching camera catalog")

	reload := func() {
		cat, err := LoadCatalog(abs)
		if err != nil {
			log.Warn().Err(err).Str("path", abs).Msg("catalog reload failed")
			return
		}
		d.Reconcile(cat)
		log.Info().Str("path", abs).Int("cameras", len(cat.Cameras)).Msg("catalog reloaded")
	}

	// The debounced reload runs on this goroutine, so none can follow return.
	var pending <-chan time.Time
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			pending = time.After(catalogDebounce)
		case <-pending:
			pending = nil
			reload()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("catalog watcher error")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
