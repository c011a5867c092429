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
package llmclient

import (
	"github.com/bigmoostache/loomspine/pkg/module"
	"github.com/bigmoostache/loomspine/pkg/state"
)

// AssembleMessages converts a worker's conversation history into API
// messages, enforcing the two invariants §4.5 requires of the wire format:
// consecutive same-role messages are merged, and no tool_result message can
// appear without a preceding tool_use.
func AssembleMessages(history []*state.Message) []APIMessage {
	var out []APIMessage
	var pendingToolUseIDs map[string]bool

	for _, m := range history {
		if m.Status == state.StatusDeleted || m.Status == state.StatusDetached {
			continue
		}
		content := m.Content
		if m.Status == state.StatusSummarized && m.TLDR != nil {
			content = *m.TLDR
		}

		role := apiRole(m.Role)

		switch m.Type {
		case state.ToolResult:
			// Drop orphaned tool results: a tool_result with no matching
			// tool_use earlier in the assembled stream would violate the
			// wire format's alternation contract.
			filtered := make([]state.ToolResultRecord, 0, len(m.ToolResults))
			for _, tr := range m.ToolResults {
				if pendingToolUseIDs != nil && pendingToolUseIDs[tr.ToolUseID] {
					filtered = append(filtered, tr)
				}
			}
			if len(filtered) == 0 {
				continue
			}
			appendOrMerge(&out, role, content, nil, toResults(filtered))
		case state.ToolCall:
			appendOrMerge(&out, role, content, toUses(m.ToolUses), nil)
			pendingToolUseIDs = make(map[string]bool, len(m.ToolUses))
			for _, tu := range m.ToolUses {
				pendingToolUseIDs[tu.ID] = true
			}
		default:
			appendOrMerge(&out, role, content, nil, nil)
		}
	}
	return out
}

func toUses(records []state.ToolUseRecord) []module.ToolUse {
	out := make([]module.ToolUse, len(records))
	for i, r := range records {
		out[i] = module.ToolUse{ID: r.ID, Name: r.Name, Input: r.Input}
	}
	return out
}

func toResults(records []state.ToolResultRecord) []module.ToolResult {
	out := make([]module.ToolResult, len(records))
	for i, r := range records {
		out[i] = module.ToolResult{ToolUseID: r.ToolUseID, Content: r.Content, IsError: r.IsError, ToolName: r.ToolName}
	}
	return out
}

func apiRole(role string) string {
	switch role {
	case "user", "assistant", "system":
		return role
	default:
		return "user"
	}
}

// appendOrMerge appends a new APIMessage, merging into the previous one if
// it shares the same role (consecutive-same-role merge rule).
func appendOrMerge(out *[]APIMessage, role, content string, uses []module.ToolUse, results []module.ToolResult) {
	if n := len(*out); n > 0 && (*out)[n-1].Role == role {
		prev := &(*out)[n-1]
		if content != "" {
			if prev.Content != "" {
				prev.Content += "\n"
			}
			prev.Content += content
		}
		prev.ToolUses = append(prev.ToolUses, uses...)
		prev.ToolResults = append(prev.ToolResults, results...)
		return
	}
	*out = append(*out, APIMessage{Role: role, Content: content, ToolUses: uses, ToolResults: results})
}
