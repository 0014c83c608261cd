// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long to wait for writes to settle before signaling a
// change; editors commonly emit several fsnotify events for one save.
const watchDebounce = 150 * time.Millisecond

// watchFixture watches path's containing directory and sends to changed
// whenever path itself is written, debounced so a burst of editor writes
// produces one signal. The returned stop func releases the watcher.
func watchFixture(path string, changed chan<- struct{}) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go debounceWatch(watcher, abs, changed, done)

	return func() {
		close(done)
		_ = watcher.Close()
	}, nil
}

func debounceWatch(watcher *fsnotify.Watcher, target string, changed chan<- struct{}, done <-chan struct{}) {
	var timer *time.Timer
	fire := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-done:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			targetAbs, err := filepath.Abs(ev.Name)
			if err != nil || targetAbs != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, fire)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			appLogger.Warn("fixture watch error", "error", err)
		}
	}
}
