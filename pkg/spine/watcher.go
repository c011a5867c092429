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
package spine

import (
	"sync"

	"github.com/bigmoostache/loomspine/pkg/state"
)

// WatcherResult is what a Watcher returns when it fires: the text the spine
// turns into a "custom" notification.
type WatcherResult struct {
	Description string
	ToolUseID   string
}

// Watcher is a process-wide (never persisted) observer the spine polls every
// main-loop step. A firing watcher is removed from the registry by the
// spine, matching §4.6 step 1's "fire: remove the watcher and create a
// notification".
type Watcher interface {
	ID() string
	Description() string
	IsBlocking() bool
	ToolUseID() (string, bool)
	RegisteredMs() int64
	SourceTag() string

	// Check reports a result once its condition holds; it may be called
	// repeatedly while the condition is false (the watcher does not
	// self-remove until it fires).
	Check(s *state.State) *WatcherResult
	// CheckTimeout reports a result if the watcher's deadline, if any, has
	// elapsed; watchers without a deadline always return nil.
	CheckTimeout() *WatcherResult
}

// WatcherRegistry is the process-wide (not persisted) set of active
// watchers, grounded in the teacher's cron-entry map idiom
// (pkg/scheduler.Scheduler) but driven by an explicit poll rather than a
// ticker, since watcher conditions depend on in-memory State the scheduler
// doesn't own.
type WatcherRegistry struct {
	mu       sync.Mutex
	watchers map[string]Watcher
}

// NewWatcherRegistry returns an empty registry.
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{watchers: make(map[string]Watcher)}
}

// Register adds w, replacing any existing watcher with the same ID.
func (r *WatcherRegistry) Register(w Watcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers[w.ID()] = w
}

// EnsureRegistered registers a watcher built by factory only if no watcher
// with id is currently present, so re-arming after a fire (e.g. re-watching
// incomplete todos after every stream end) is idempotent.
func (r *WatcherRegistry) EnsureRegistered(id string, factory func() Watcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.watchers[id]; ok {
		return
	}
	r.watchers[id] = factory()
}

// Remove drops the watcher with id, if present.
func (r *WatcherRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.watchers, id)
}

// Has reports whether a watcher with id is currently registered.
func (r *WatcherRegistry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.watchers[id]
	return ok
}

// firedWatcher pairs a fired watcher with its result, for Poll's caller to
// turn into notifications.
type firedWatcher struct {
	watcher Watcher
	result  WatcherResult
}

// poll calls Check (then CheckTimeout) on every registered watcher,
// collecting firings and removing each fired watcher from the registry, per
// §4.6 step 1.
func (r *WatcherRegistry) poll(s *state.State) []firedWatcher {
	r.mu.Lock()
	snapshot := make([]Watcher, 0, len(r.watchers))
	for _, w := range r.watchers {
		snapshot = append(snapshot, w)
	}
	r.mu.Unlock()

	var fired []firedWatcher
	for _, w := range snapshot {
		if res := w.Check(s); res != nil {
			fired = append(fired, firedWatcher{watcher: w, result: *res})
			r.Remove(w.ID())
			continue
		}
		if res := w.CheckTimeout(); res != nil {
			fired = append(fired, firedWatcher{watcher: w, result: *res})
			r.Remove(w.ID())
		}
	}
	return fired
}
