package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"preflight/internal/pkg/logger"
)

// watchDebounce collapses the burst of events an editor or exporter emits per save.
const watchDebounce = 200 * time.Millisecond

// watch runs fn once, then again after every change to path, until ctx is done.
// The directory is watched rather than the file so atomic replace-on-save is seen.
// Errors from fn are printed and do not stop the loop.
func watch(ctx context.Context, path string, log *logger.Logger, fn func() error, errOut io.Writer) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	report := func() {
		if err := fn(); err != nil {
			fmt.Fprintln(errOut, err)
		}
	}

	log.Info("watching scene export", "path", abs)
	report()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !touches(ev, abs) {
				continue
			}
			log.Debug("scene export changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			report()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				log.Warn("watch event overflow, re-running")
				report()
				continue
			}
			log.Warn("watch error", "error", err.Error())
		}
	}
}

func touches(ev fsnotify.Event, abs string) bool {
	if filepath.Clean(ev.Name) != abs {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
