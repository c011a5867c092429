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
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bigmoostache/loomspine/pkg/state"
)

// CoucouWatcher is a one-shot timer/datetime notification, grounded in
// original_source's `coucou` tool: it fires once now has reached a target
// time, then self-removes (CheckTimeout, not Check, since it never inspects
// State — it only watches the clock).
type CoucouWatcher struct {
	id           string
	registeredMs int64
	targetMs     int64
	message      string
}

var _ Watcher = (*CoucouWatcher)(nil)

// NewCoucouWatcher schedules a one-shot notification at targetMs carrying
// message.
func NewCoucouWatcher(id string, nowMs, targetMs int64, message string) *CoucouWatcher {
	return &CoucouWatcher{id: id, registeredMs: nowMs, targetMs: targetMs, message: message}
}

func (w *CoucouWatcher) ID() string                { return w.id }
func (w *CoucouWatcher) Description() string       { return fmt.Sprintf("scheduled notification: %s", w.message) }
func (w *CoucouWatcher) IsBlocking() bool          { return false }
func (w *CoucouWatcher) ToolUseID() (string, bool) { return "", false }
func (w *CoucouWatcher) RegisteredMs() int64       { return w.registeredMs }
func (w *CoucouWatcher) SourceTag() string         { return "coucou" }

// Check never inspects State; the clock condition lives in CheckTimeout.
func (w *CoucouWatcher) Check(s *state.State) *WatcherResult { return nil }

func (w *CoucouWatcher) CheckTimeout() *WatcherResult {
	if time.Now().UnixMilli() < w.targetMs {
		return nil
	}
	return &WatcherResult{Description: w.message}
}

// PeriodicWatcher drives GhWatcher/GitResultWatcher: a cron-scheduled
// refresh trigger for a panel whose source command benefits from polling
// (e.g. `gh pr status`, a CI result query) rather than only on-demand
// invalidation. Like every Watcher, it self-removes on fire (§4.6 step 1);
// the caller re-arms it for the next cron tick via
// WatcherRegistry.EnsureRegistered with the same id, the way the main loop
// re-arms TodoWatcher.
type PeriodicWatcher struct {
	id           string
	sourceTag    string
	registeredMs int64
	schedule     cron.Schedule
	panelUID     string
	nextFireMs   int64
}

var _ Watcher = (*PeriodicWatcher)(nil)

// NewPeriodicWatcher parses a standard 5-field cron expression (e.g.
// "*/5 * * * *" for every 5 minutes) and arms the watcher's first fire time
// relative to nowMs.
func NewPeriodicWatcher(id, sourceTag, panelUID, cronExpr string, nowMs int64) (*PeriodicWatcher, error) {
	sched, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	now := time.UnixMilli(nowMs)
	return &PeriodicWatcher{
		id:           id,
		sourceTag:    sourceTag,
		registeredMs: nowMs,
		schedule:     sched,
		panelUID:     panelUID,
		nextFireMs:   sched.Next(now).UnixMilli(),
	}, nil
}

func (w *PeriodicWatcher) ID() string                { return w.id }
func (w *PeriodicWatcher) Description() string       { return fmt.Sprintf("periodic refresh trigger for %s", w.panelUID) }
func (w *PeriodicWatcher) IsBlocking() bool          { return false }
func (w *PeriodicWatcher) ToolUseID() (string, bool) { return "", false }
func (w *PeriodicWatcher) RegisteredMs() int64       { return w.registeredMs }
func (w *PeriodicWatcher) SourceTag() string         { return w.sourceTag }

// Check touches the target panel once the current time passes nextFireMs
// and reports a result; the registry then removes this instance, and the
// caller re-arms a fresh one with the advanced schedule.
func (w *PeriodicWatcher) Check(s *state.State) *WatcherResult {
	now := time.Now().UnixMilli()
	if now < w.nextFireMs {
		return nil
	}
	s.TouchPanelByUID(w.panelUID)
	return &WatcherResult{Description: fmt.Sprintf("periodic refresh fired for %s", w.panelUID)}
}

func (w *PeriodicWatcher) CheckTimeout() *WatcherResult { return nil }

// PanelUID is the panel this watcher keeps deprecating on its cadence.
func (w *PeriodicWatcher) PanelUID() string { return w.panelUID }
