package lerobot

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/libero2lerobot/internal/app"
	"github.com/bft-labs/libero2lerobot/internal/ports"
)

// DefaultWatchDebounce is the quiet period after the last input change
// before a re-run starts.
const DefaultWatchDebounce = 2 * time.Second

// RunFunc receives the outcome of every run started by Watch.
type RunFunc func(summary Summary, err error)

// Watch runs the conversion once, then again whenever an .hdf5 file in the
// input directory is created, written, removed or renamed and no further
// change arrives for debounce. Every re-run converts the whole directory.
// Watch returns nil when ctx is done; a failed run is reported to onRun and
// the watch continues.
func (c *Converter) Watch(ctx context.Context, debounce time.Duration, onRun RunFunc) error {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	if onRun == nil {
		onRun = c.logRun
	}

	if _, err := app.ListInputs(c.config.InputDir); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(c.config.InputDir); err != nil {
		return fmt.Errorf("watch %s: %w", c.config.InputDir, err)
	}
	c.logger.Info("watching input directory",
		ports.String("dir", c.config.InputDir),
		ports.Duration("debounce", debounce),
	)

	run := func() bool {
		summary, err := c.Run(ctx)
		if ctx.Err() != nil {
			return false
		}
		onRun(summary, err)
		return true
	}
	if !run() {
		return nil
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantChange(event) {
				continue
			}
			c.logger.Debug("input changed", ports.String("file", filepath.Base(event.Name)), ports.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if !run() {
				return nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("watcher error", ports.Err(err))
		}
	}
}

func relevantChange(e fsnotify.Event) bool {
	if filepath.Ext(e.Name) != app.InputExtension {
		return false
	}
	return e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

func (c *Converter) logRun(summary Summary, err error) {
	if err != nil {
		c.logger.Error("watch run failed", ports.Err(err))
		return
	}
	c.logger.Info("watch run complete", ports.String("summary", summary.String()))
}
