package patient

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher refreshes vitals and medications when the profile file changes on
// disk. Caregivers update readings in the file while a session runs.
type Watcher struct {
	store    *Store
	path     string
	debounce time.Duration
	logger   zerolog.Logger
}

func NewWatcher(store *Store, path string, debounce time.Duration, logger zerolog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		store:    store,
		path:     filepath.Clean(path),
		debounce: debounce,
		logger:   logger.With().Str("component", "patient_watcher").Logger(),
	}
}

// Run blocks until ctx is cancelled. The parent directory is watched rather
// than the file itself so that editors that replace the file on save are
// still observed.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = true
				timer.Reset(w.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch error")

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			w.refresh()
		}
	}
}

func (w *Watcher) refresh() {
	f, err := os.Open(w.path)
	if err != nil {
		w.logger.Warn().Err(err).Msg("reopen patient data")
		return
	}
	defer f.Close()

	n, err := w.store.RefreshHealth(f)
	if err != nil {
		w.logger.Warn().Err(err).Msg("refresh patient health data")
		return
	}
	w.logger.Info().Int("patients", n).Msg("patient health data refreshed")
}
