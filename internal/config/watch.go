// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// FILE WATCHING
// =============================================================================

// WatchDebounce coalesces the burst of events editors produce on save.
const WatchDebounce = 150 * time.Millisecond

// Watch reloads the config file at path whenever it changes and passes the
// result to fn. The parent directory is watched so atomic replace-by-rename
// saves are seen too.
//
// The returned channel is closed once the watcher has stopped, which
// happens when ctx is cancelled.
func Watch(ctx context.Context, path string, fn func(*Config, error)) (<-chan struct{}, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer w.Close()

		timer := time.NewTimer(WatchDebounce)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					timer.Reset(WatchDebounce)
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				fn(nil, err)

			case <-timer.C:
				fn(LoadFromPath(abs))
			}
		}
	}()

	return done, nil
}
