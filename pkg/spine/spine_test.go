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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigmoostache/loomspine/pkg/state"
)

func TestSpine_StepDoesNothingWithoutNotifications(t *testing.T) {
	sp := New()
	s := state.New()
	d := sp.Step(s, DefaultConfig(), "", 1000)
	assert.False(t, d.ShouldLaunch)
	assert.False(t, d.Blocked)
}

func TestSpine_StepDoesNothingWhileStreaming(t *testing.T) {
	sp := New()
	sp.SetStreaming(true)
	s := state.New()
	s.AppendNotification(state.NewNotification("", state.NotifUserMessage, "user", "hi", 1000))

	d := sp.Step(s, DefaultConfig(), "", 1000)
	assert.False(t, d.ShouldLaunch)
}

func TestSpine_StepLaunchesOnUserMessage(t *testing.T) {
	sp := New()
	s := state.New()
	s.AppendNotification(state.NewNotification("", state.NotifUserMessage, "user", "hi", 1000))

	d := sp.Step(s, DefaultConfig(), "", 1000)
	require.True(t, d.ShouldLaunch)
	assert.Equal(t, state.NotifUserMessage, d.Trigger.Type)
	assert.False(t, d.Action.Relaunch)
	assert.Empty(t, d.Action.SyntheticMessage)
}

func TestSpine_StepBlocksOnGuardRailAndMarksProcessed(t *testing.T) {
	sp := New()
	s := state.New()
	n := s.AppendNotification(state.NewNotification("", state.NotifUserMessage, "user", "hi", 1000))

	limit := 10
	cfg := DefaultConfig()
	cfg.MaxMessages = &limit
	sp.RecordCounters(Counters{MessageCount: 10})

	d := sp.Step(s, cfg, "", 1000)
	require.True(t, d.Blocked)
	assert.Contains(t, d.BlockReason, "message limit")

	pending := s.UnprocessedNotifications()
	assert.Empty(t, pending)
	_ = n
}

func TestSpine_RecordStreamStartIncrementsOnlyForNonUserTrigger(t *testing.T) {
	sp := New()
	cfg := DefaultConfig()
	s := state.New()
	n := s.AppendNotification(state.NewNotification("", state.NotifMaxTokensTrunc, "llm", "", 5000))

	sp.RecordStreamStart(&cfg, n, s, 5000)
	assert.Equal(t, 1, cfg.AutoContinuationCount)
	assert.Equal(t, int64(5000), cfg.AutonomousStartMs)

	pending := s.UnprocessedNotifications()
	for _, p := range pending {
		assert.NotEqual(t, n.ID, p.ID)
	}
}

func TestSpine_RecordStreamStartDoesNotIncrementForUserMessage(t *testing.T) {
	sp := New()
	cfg := DefaultConfig()
	s := state.New()
	n := s.AppendNotification(state.NewNotification("", state.NotifUserMessage, "user", "hi", 1000))

	sp.RecordStreamStart(&cfg, n, s, 1000)
	assert.Equal(t, 0, cfg.AutoContinuationCount)
}

func TestSpine_RecordStreamEndResetsOnlyForUserMessage(t *testing.T) {
	sp := New()
	cfg := DefaultConfig()
	cfg.AutoContinuationCount = 3
	cfg.AutonomousStartMs = 1234

	sp.RecordStreamEnd(&cfg, state.NewNotification("N1", state.NotifUserMessage, "user", "", 0))
	assert.Equal(t, 0, cfg.AutoContinuationCount)
	assert.Equal(t, int64(0), cfg.AutonomousStartMs)

	cfg.AutoContinuationCount = 3
	sp.RecordStreamEnd(&cfg, state.NewNotification("N2", state.NotifMaxTokensTrunc, "llm", "", 0))
	assert.Equal(t, 3, cfg.AutoContinuationCount)
}

func TestSpine_MaxAutoRetriesBlocksAfterThirdConsecutiveRelaunch(t *testing.T) {
	// Scenario 3 from the spec: max_auto_retries=2, after the 3rd
	// consecutive max_tokens_truncated relaunch the guard rail blocks.
	sp := New()
	cfg := DefaultConfig()
	maxRetries := 2
	cfg.MaxAutoRetries = &maxRetries
	s := state.New()

	for i := 0; i < 4; i++ {
		n := s.AppendNotification(state.NewNotification("", state.NotifMaxTokensTrunc, "llm", "", int64(i)))
		sp.RecordCounters(Counters{AutoRetryCount: cfg.AutoContinuationCount})
		d := sp.Step(s, cfg, "", int64(i))
		if i < 3 {
			require.True(t, d.ShouldLaunch, "iteration %d", i)
			sp.RecordStreamStart(&cfg, n, s, int64(i))
			sp.RecordStreamEnd(&cfg, n)
		} else {
			require.True(t, d.Blocked, "iteration %d should be blocked", i)
		}
	}
}

func TestDecideContinuation_TodoIncompleteProducesSyntheticMessage(t *testing.T) {
	n := state.NewNotification("N1", state.NotifTodoIncomplete, "todo", "", 0)
	action := state.DecideContinuation(n, "2 todo(s) remaining")
	assert.False(t, action.Relaunch)
	assert.Contains(t, action.SyntheticMessage, "2 todo(s) remaining")
}

func TestDecideContinuation_ReloadResumeAndMaxTokensRelaunch(t *testing.T) {
	for _, typ := range []state.NotificationType{state.NotifReloadResume, state.NotifMaxTokensTrunc} {
		action := state.DecideContinuation(state.NewNotification("N1", typ, "", "", 0), "")
		assert.True(t, action.Relaunch)
	}
}

func TestDecideContinuation_CustomUsesContentVerbatim(t *testing.T) {
	n := state.NewNotification("N1", state.NotifCustom, "coucou", "wake up", 0)
	action := state.DecideContinuation(n, "")
	assert.False(t, action.Relaunch)
	assert.Equal(t, "wake up", action.SyntheticMessage)
}
