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

import "fmt"

// Counters is the cumulative autonomous-session accounting guard rails judge
// against Config's nullable limits.
type Counters struct {
	OutputTokens   int
	CostUSD        float64
	NowMs          int64
	MessageCount   int
	AutoRetryCount int
}

// GuardRail is a named predicate checked before any auto-continuation fires;
// all registered guard rails run, and any single block stops the spine.
// Nullable limits (nil) never block.
type GuardRail interface {
	Name() string
	ShouldBlock(cfg Config, c Counters) bool
	BlockReason(cfg Config, c Counters) string
}

// AllGuardRails is the ordered, static list every spine step evaluates,
// matching §4.6's named set exactly.
func AllGuardRails() []GuardRail {
	return []GuardRail{
		MaxOutputTokensGuard{},
		MaxCostGuard{},
		MaxDurationGuard{},
		MaxMessagesGuard{},
		MaxAutoRetriesGuard{},
	}
}

// MaxOutputTokensGuard blocks once cumulative output tokens reach the
// configured ceiling.
type MaxOutputTokensGuard struct{}

func (MaxOutputTokensGuard) Name() string { return "max_output_tokens" }
func (MaxOutputTokensGuard) ShouldBlock(cfg Config, c Counters) bool {
	return cfg.MaxOutputTokens != nil && c.OutputTokens >= *cfg.MaxOutputTokens
}
func (MaxOutputTokensGuard) BlockReason(cfg Config, c Counters) string {
	return fmt.Sprintf("output token limit reached (%d >= %d)", c.OutputTokens, *cfg.MaxOutputTokens)
}

// MaxCostGuard blocks once cumulative estimated cost reaches the configured
// ceiling.
type MaxCostGuard struct{}

func (MaxCostGuard) Name() string { return "max_cost" }
func (MaxCostGuard) ShouldBlock(cfg Config, c Counters) bool {
	return cfg.MaxCost != nil && c.CostUSD >= *cfg.MaxCost
}
func (MaxCostGuard) BlockReason(cfg Config, c Counters) string {
	return fmt.Sprintf("cost limit reached ($%.4f >= $%.4f)", c.CostUSD, *cfg.MaxCost)
}

// MaxDurationGuard blocks once the autonomous session has run for at least
// the configured wall-clock limit, counted in whole seconds.
type MaxDurationGuard struct{}

func (MaxDurationGuard) Name() string { return "max_duration_secs" }
func (MaxDurationGuard) ShouldBlock(cfg Config, c Counters) bool {
	if cfg.MaxDurationSecs == nil || cfg.AutonomousStartMs == 0 {
		return false
	}
	elapsedSecs := (c.NowMs - cfg.AutonomousStartMs) / 1000
	return elapsedSecs >= *cfg.MaxDurationSecs
}
func (MaxDurationGuard) BlockReason(cfg Config, c Counters) string {
	elapsedSecs := (c.NowMs - cfg.AutonomousStartMs) / 1000
	return fmt.Sprintf("duration limit reached (%ds >= %ds)", elapsedSecs, *cfg.MaxDurationSecs)
}

// MaxMessagesGuard blocks once the conversation's message count reaches the
// configured limit.
type MaxMessagesGuard struct{}

func (MaxMessagesGuard) Name() string { return "max_messages" }
func (MaxMessagesGuard) ShouldBlock(cfg Config, c Counters) bool {
	return cfg.MaxMessages != nil && c.MessageCount >= *cfg.MaxMessages
}
func (MaxMessagesGuard) BlockReason(cfg Config, c Counters) string {
	return fmt.Sprintf("message limit reached (%d >= %d)", c.MessageCount, *cfg.MaxMessages)
}

// MaxAutoRetriesGuard blocks once consecutive non-user-triggered
// continuations exceed the configured ceiling (the max-tokens truncation
// loop in scenario 3).
type MaxAutoRetriesGuard struct{}

func (MaxAutoRetriesGuard) Name() string { return "max_auto_retries" }
func (MaxAutoRetriesGuard) ShouldBlock(cfg Config, c Counters) bool {
	return cfg.MaxAutoRetries != nil && c.AutoRetryCount > *cfg.MaxAutoRetries
}
func (MaxAutoRetriesGuard) BlockReason(cfg Config, c Counters) string {
	return fmt.Sprintf("auto-retry limit reached (%d > %d)", c.AutoRetryCount, *cfg.MaxAutoRetries)
}

// EvaluateGuardRails runs every guard rail in order and returns the first
// block encountered, if any.
func EvaluateGuardRails(cfg Config, c Counters) (blocked bool, reason string) {
	for _, g := range AllGuardRails() {
		if g.ShouldBlock(cfg, c) {
			return true, g.BlockReason(cfg, c)
		}
	}
	return false, ""
}
