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
package state

import "encoding/json"

// MessageType distinguishes a plain text turn from a tool invocation or its
// result.
type MessageType string

const (
	TextMessage MessageType = "text_message"
	ToolCall    MessageType = "tool_call"
	ToolResult  MessageType = "tool_result"
)

// MessageStatus tracks how much of a message's content is still present in
// the live conversation.
type MessageStatus string

const (
	StatusFull       MessageStatus = "full"
	StatusSummarized MessageStatus = "summarized"
	StatusDeleted    MessageStatus = "deleted"
	StatusDetached   MessageStatus = "detached"
)

// ToolUseRecord is the tool call envelope emitted by the LLM.
type ToolUseRecord struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResultRecord is the result envelope sent back to the LLM.
type ToolResultRecord struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error"`
	ToolName  string `json:"tool_name,omitempty"`
}

// Message is one turn of the conversation: id like "U1"/"A1"/"T1" by role,
// a process-global monotonic uid, and optional embedded tool envelopes.
type Message struct {
	ID  string  `json:"id"`
	UID string  `json:"uid,omitempty"`

	Role string      `json:"role"`
	Type MessageType `json:"message_type"`

	Content           string  `json:"content"`
	ContentTokenCount int     `json:"content_token_count"`
	TLDR              *string `json:"tl_dr,omitempty"`
	TLDRTokenCount    int     `json:"tl_dr_token_count"`

	Status MessageStatus `json:"status"`

	ToolUses    []ToolUseRecord    `json:"tool_uses,omitempty"`
	ToolResults []ToolResultRecord `json:"tool_results,omitempty"`

	InputTokens int   `json:"input_tokens"`
	TimestampMs int64 `json:"timestamp_ms"`
}

// NewMessage builds a message with its token counts derived from Content and
// status defaulted to Full, matching the original's Message::new default.
func NewMessage(id, role string, typ MessageType, content string, timestampMs int64) *Message {
	return &Message{
		ID:                id,
		Role:              role,
		Type:              typ,
		Content:           content,
		ContentTokenCount: EstimateTokens(content),
		Status:            StatusFull,
		TimestampMs:       timestampMs,
	}
}
