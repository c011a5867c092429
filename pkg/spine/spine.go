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
	"time"

	"go.uber.org/zap"

	"github.com/bigmoostache/loomspine/internal/log"
	"github.com/bigmoostache/loomspine/pkg/state"
)

// Spine is the control plane owning the notification queue's evaluation
// rules, the watcher registry, and the guard-rail gate in front of
// autonomous continuation. It does not itself own the event loop or the LLM
// client — Step is called by the main loop (§5: "a single-threaded main
// loop serializes all State mutation") and returns a Decision the caller
// acts on.
type Spine struct {
	Watchers *WatcherRegistry

	mu       sync.Mutex
	streaming bool
	counters Counters
}

// New creates an empty spine with its own watcher registry.
func New() *Spine {
	return &Spine{Watchers: NewWatcherRegistry()}
}

// SetStreaming records whether an LLM stream is currently running; Step's
// step 2 only fires when this is false.
func (sp *Spine) SetStreaming(v bool) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.streaming = v
}

// IsStreaming reports the current streaming flag.
func (sp *Spine) IsStreaming() bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.streaming
}

// RecordCounters replaces the guard rail counters the next Step evaluates
// against; the caller (main loop) derives these from State and its own
// running totals (tokens emitted, cost estimate, message count).
func (sp *Spine) RecordCounters(c Counters) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.counters = c
}

// Decision is Step's verdict: either blocked (with a reason to surface as a
// system message), or a launch instruction (trigger notification + the
// ContinuationAction to apply), or neither (nothing to do this tick).
type Decision struct {
	Blocked      bool
	BlockReason  string
	ShouldLaunch bool
	Trigger      state.Notification
	Action       state.ContinuationAction
}

// Step runs one main-loop iteration of §4.6: poll watchers (turning firings
// into "custom" notifications), and — if no stream is running and at least
// one notification is unprocessed — evaluate guard rails and compute the
// next ContinuationAction. It never blocks and never itself launches a
// stream; the caller does that and then calls RecordStreamStart/End.
func (sp *Spine) Step(s *state.State, cfg Config, todoSummary string, nowMs int64) Decision {
	sp.pollWatchers(s, nowMs)

	if sp.IsStreaming() {
		return Decision{}
	}

	pending := s.UnprocessedNotifications()
	if len(pending) == 0 {
		return Decision{}
	}

	sp.mu.Lock()
	counters := sp.counters
	sp.mu.Unlock()
	counters.NowMs = nowMs

	if blocked, reason := EvaluateGuardRails(cfg, counters); blocked {
		for _, n := range pending {
			s.MarkProcessed(n.ID)
		}
		log.Warn("spine: guard rail blocked auto-continuation", zap.String("reason", reason))
		return Decision{Blocked: true, BlockReason: reason}
	}

	trigger := pending[0]
	action := state.DecideContinuation(trigger, todoSummary)
	return Decision{ShouldLaunch: true, Trigger: trigger, Action: action}
}

// pollWatchers runs §4.6 step 1: every fired watcher becomes a "custom"
// notification tagged with its SourceTag.
func (sp *Spine) pollWatchers(s *state.State, nowMs int64) {
	for _, f := range sp.Watchers.poll(s) {
		s.AppendNotification(state.NewNotification("", state.NotifCustom, f.watcher.SourceTag(), f.result.Description, nowMs))
	}
}

// RecordStreamStart marks trigger's notification processed, sets the
// streaming flag, increments auto_continuation_count when the trigger
// wasn't a user message, and arms autonomous_start_ms on its first use —
// mutating cfg in place so the caller can persist it.
func (sp *Spine) RecordStreamStart(cfg *Config, trigger state.Notification, s *state.State, nowMs int64) {
	s.MarkProcessed(trigger.ID)
	sp.SetStreaming(true)
	if trigger.Type != state.NotifUserMessage {
		cfg.AutoContinuationCount++
		if cfg.AutonomousStartMs == 0 {
			cfg.AutonomousStartMs = nowMs
		}
	}
}

// RecordStreamEnd implements §4.6 step 3: clears the streaming flag and, iff
// the triggering notification was a user message, resets
// auto_continuation_count to 0 (the invariant §8 requires).
func (sp *Spine) RecordStreamEnd(cfg *Config, trigger state.Notification) {
	sp.SetStreaming(false)
	if trigger.Type == state.NotifUserMessage {
		cfg.AutoContinuationCount = 0
		cfg.AutonomousStartMs = 0
	}
}

// NowMs is a small helper so callers needn't import "time" just to feed
// Step's nowMs parameter.
func NowMs() int64 { return time.Now().UnixMilli() }
