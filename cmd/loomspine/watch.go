// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/bigmoostache/loomspine/internal/log"
	"github.com/bigmoostache/loomspine/pkg/modules/files"
	"github.com/bigmoostache/loomspine/pkg/state"
)

// watchOpenFiles starts an fsnotify watcher over every file currently open
// in a "file" panel and adds the paths of newly opened files as they appear
// (paths of closed panels stay on the watch list). Any
// write/create/remove/rename event for a watched path deprecates that
// file's panel through the same TouchPanelByUID the tool dispatcher's
// invalidation rules use (§4.4 step 5), so an edit made outside the agent
// (another editor, a build step) is picked up by the Cache Refresh Pipeline
// on its next scan exactly like a tool-driven invalidation would. This is
// the DOMAIN STACK's "optional external-change watcher" role for
// github.com/fsnotify/fsnotify.
//
// The returned stop func closes the underlying watcher; call it once on
// shutdown.
func watchOpenFiles(s *state.State) func() {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("watch: fsnotify unavailable, external file edits won't auto-invalidate", zap.Error(err))
		return func() {}
	}

	watched := make(map[string]bool)
	sync := func() {
		for _, e := range s.PanelsOfType(files.ContextType) {
			path := e.Metadata["file_path"]
			if path == "" || watched[path] {
				continue
			}
			if err := w.Add(path); err == nil {
				watched[path] = true
			}
		}
	}
	sync()

	done := make(chan struct{})
	ticker := time.NewTicker(2 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				for _, e := range s.PanelsOfType(files.ContextType) {
					if e.Metadata["file_path"] == ev.Name {
						s.TouchPanelByUID(e.UID)
					}
				}
				sync()
			case watchErr, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("watch: fsnotify error", zap.Error(watchErr))
			case <-ticker.C:
				// newly file_open'd panels since the last sync aren't
				// watched until their path is added here.
				sync()
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		w.Close()
	}
}
