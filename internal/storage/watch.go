// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of events from a single atomic write.
const DefaultDebounce = 150 * time.Millisecond

// Watch calls fn after the store file at path changes on disk.
// The parent directory is watched because atomic writes replace the file.
// Events for sibling files other than path and its sqlite journals are
// ignored. Watch returns once the watch is installed; it stops when ctx is
// cancelled.
func Watch(ctx context.Context, path string, debounce time.Duration, log *slog.Logger, fn func()) error {
	if path == "" {
		return fmt.Errorf("storage: nothing to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.Default()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	base := filepath.Base(absPath)
	go func() {
		defer w.Close()

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
				return

			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if !matchesStore(base, filepath.Base(event.Name)) {
					continue
				}
				if event.Op == fsnotify.Chmod {
					continue
				}
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
				fn()

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("store watcher error", "path", absPath, "error", err)
			}
		}
	}()

	return nil
}

func matchesStore(base, name string) bool {
	if name == base {
		return true
	}
	return strings.HasPrefix(name, base+"-") // sqlite -wal / -shm / -journal
}
