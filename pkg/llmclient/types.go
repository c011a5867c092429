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

// Package llmclient defines the abstract streaming-LLM contract (§4.5): a
// pure translator between a provider's wire format and a small, provider
// agnostic event stream. It never mutates conversation state; it only
// assembles a request and forwards events on a channel the caller owns.
package llmclient

import (
	"context"
	"encoding/json"

	"github.com/bigmoostache/loomspine/pkg/module"
)

// APIMessage is one role-tagged turn of assembled conversation, ready to
// hand to a provider. ToolUses/ToolResults carry the envelopes defined in
// §6; Content holds plain text.
type APIMessage struct {
	Role        string
	Content     string
	ToolUses    []module.ToolUse
	ToolResults []module.ToolResult
}

// LlmRequest bundles everything a stream call needs.
type LlmRequest struct {
	Model           string
	MaxOutputTokens int
	Temperature     float64
	SystemPrompt    string
	Messages        []APIMessage
	Tools           []module.ToolDefinition
	WorkerID        string
}

// StopReason is the provider-reported reason a turn ended.
type StopReason string

const (
	StopEndTurn      StopReason = "end_turn"
	StopMaxTokens    StopReason = "max_tokens"
	StopToolUse      StopReason = "tool_use"
	StopStopSequence StopReason = "stop_sequence"
)

// StreamEvent is one unit on the event channel, in emission order.
type StreamEvent struct {
	TextDelta string // non-empty for a text delta event

	ToolUse *module.ToolUse // non-nil for a tool_use event

	StopReason StopReason // non-empty for a stop_reason event

	Done *DoneInfo // non-nil for the terminal Done event
}

// DoneInfo carries the final accounting for a completed stream.
type DoneInfo struct {
	InputTokens    int
	OutputTokens   int
	CacheHitTokens int
	CacheMissTokens int
	StopReason     StopReason
}

// ErrorKind is the closed error taxonomy of §7.
type ErrorKind string

const (
	ErrAuth       ErrorKind = "auth"
	ErrNetwork    ErrorKind = "network"
	ErrAPI        ErrorKind = "api"
	ErrStreamRead ErrorKind = "stream_read"
	ErrParse      ErrorKind = "parse"
)

// LlmError is the error type every StreamingClient returns; callers switch
// on Kind to decide retry policy (the spine's job, never the client's).
type LlmError struct {
	Kind    ErrorKind
	Status  int    // populated when Kind == ErrAPI
	Body    string // populated when Kind == ErrAPI
	Message string
	Cause   error
}

func (e *LlmError) Error() string {
	if e.Cause != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Cause.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *LlmError) Unwrap() error { return e.Cause }

// Retryable reports whether this error is transient: network, stream-read,
// and 429/5xx API errors are; auth, parse, and other API status codes are
// not.
func (e *LlmError) Retryable() bool {
	switch e.Kind {
	case ErrNetwork, ErrStreamRead:
		return true
	case ErrAPI:
		return e.Status == 429 || e.Status >= 500
	default:
		return false
	}
}

// ApiCheckResult is the outcome of a lightweight reachability/auth probe
// against a model, used by the CLI's startup check.
type ApiCheckResult struct {
	OK      bool
	Message string
}

// StreamingClient is the abstract contract every concrete LLM backend
// implements. Implementations are pure translators: they append events to
// events and never touch State.
type StreamingClient interface {
	Stream(ctx context.Context, req LlmRequest, events chan<- StreamEvent) error
	CheckAPI(ctx context.Context, model string) (ApiCheckResult, error)
}

// MarshalToolInput is a small helper concrete clients use to turn a typed
// tool-call argument map back into the json.RawMessage module.ToolUse wants.
func MarshalToolInput(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return b
}
