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
package todo

import (
	"fmt"
	"strings"

	"github.com/bigmoostache/loomspine/pkg/spine"
	"github.com/bigmoostache/loomspine/pkg/state"
)

// WatcherID is the fixed registry key this module's watcher is registered
// under, so the main loop can re-arm it idempotently via
// WatcherRegistry.EnsureRegistered.
const WatcherID = "todo_watcher"

// Watcher fires a spine notification for as long as the checklist has
// incomplete items, then self-removes once it's consumed. It never times
// out: it keeps watching until the todos are done.
type Watcher struct {
	id            string
	registeredMs  int64
	description   string
}

var _ spine.Watcher = (*Watcher)(nil)

// NewWatcher creates a TodoWatcher registered at nowMs.
func NewWatcher(nowMs int64) *Watcher {
	return &Watcher{
		id:           WatcherID,
		registeredMs: nowMs,
		description:  "Waiting for incomplete todos to trigger auto-continuation",
	}
}

func (w *Watcher) ID() string                { return w.id }
func (w *Watcher) Description() string       { return w.description }
func (w *Watcher) IsBlocking() bool          { return false }
func (w *Watcher) ToolUseID() (string, bool) { return "", false }
func (w *Watcher) RegisteredMs() int64       { return w.registeredMs }
func (w *Watcher) SourceTag() string         { return "todo_continuation" }

// Check fires whenever the worker's todo list has a pending or in-progress
// item, reporting the count and the "[id] icon — name" line for each.
func (w *Watcher) Check(s *state.State) *spine.WatcherResult {
	st, ok := state.Ext[*State](s, ContextType)
	if !ok || !st.HasIncomplete() {
		return nil
	}
	lines := st.IncompleteSummaryLines()
	desc := fmt.Sprintf("Todo auto-continuation: %d todo(s) remaining:\n%s", len(lines), strings.Join(lines, "\n"))
	return &spine.WatcherResult{Description: desc}
}

// CheckTimeout never fires: the watcher keeps watching until todos are done.
func (w *Watcher) CheckTimeout() *spine.WatcherResult { return nil }
