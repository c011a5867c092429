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

// Package spine is the agent's control plane (§4.6): a notification queue, a
// process-wide watcher registry, guard rails over autonomous continuation,
// and the main-loop step that decides when and how to re-enter the LLM
// stream.
package spine

import "encoding/json"

// Config is the per-worker spine configuration (SpineConfig in §4.6),
// persisted under the state envelope's "spine_config" key.
type Config struct {
	MaxTokensAutoContinue bool `json:"max_tokens_auto_continue"`
	ContinueUntilTodosDone bool `json:"continue_until_todos_done"`

	// Nullable guard-rail limits: nil/zero means "no limit".
	MaxOutputTokens *int     `json:"max_output_tokens,omitempty"`
	MaxCost         *float64 `json:"max_cost,omitempty"`
	MaxDurationSecs *int64   `json:"max_duration_secs,omitempty"`
	MaxMessages     *int     `json:"max_messages,omitempty"`
	MaxAutoRetries  *int     `json:"max_auto_retries,omitempty"`

	// Runtime counters, reset per §4.6 rules; persisted so a reload resumes
	// mid-guard-rail-window rather than silently relaxing limits.
	AutoContinuationCount int   `json:"auto_continuation_count"`
	AutonomousStartMs     int64 `json:"autonomous_start_ms,omitempty"`
}

// DefaultConfig matches the spec's stated defaults: auto-continue on max
// tokens truncation, no other guard rails, no todo auto-continuation.
func DefaultConfig() Config {
	return Config{MaxTokensAutoContinue: true}
}

// LoadConfig reads cfg from raw persisted JSON, falling back to defaults on
// absence or malformed data (matching §4.9's load-tolerance rule).
func LoadConfig(raw json.RawMessage) Config {
	cfg := DefaultConfig()
	if len(raw) == 0 {
		return cfg
	}
	_ = json.Unmarshal(raw, &cfg)
	return cfg
}

// Marshal serializes cfg for State.SetSpineConfig.
func (c Config) Marshal() json.RawMessage {
	b, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	return b
}
