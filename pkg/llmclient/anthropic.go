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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bigmoostache/loomspine/pkg/module"
)

// AnthropicClient implements StreamingClient against the Anthropic Messages
// API's native streaming endpoint.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient builds a client authenticated with apiKey. baseURL may
// be empty to use the SDK's default endpoint.
func NewAnthropicClient(apiKey, baseURL string) *AnthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicClient{client: anthropic.NewClient(opts...)}
}

var _ StreamingClient = (*AnthropicClient)(nil)

func (c *AnthropicClient) Stream(ctx context.Context, req LlmRequest, events chan<- StreamEvent) error {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxOutputTokens),
		Messages:  toAnthropicMessages(req.Messages),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.SystemPrompt}}
	}
	if len(req.Tools) > 0 {
		params.Tools = toAnthropicTools(req.Tools)
	}

	stream := c.client.Messages.NewStreaming(ctx, params)

	var (
		currentToolID   string
		currentToolName string
		currentToolJSON strings.Builder
		inToolUse       bool
		inputTokens     int
		outputTokens    int
		cacheRead       int
		cacheWrite      int
	)

	for stream.Next() {
		event := stream.Current()
		switch event.Type {
		case "message_start":
			ms := event.AsMessageStart()
			inputTokens = int(ms.Message.Usage.InputTokens)
			cacheRead = int(ms.Message.Usage.CacheReadInputTokens)
			cacheWrite = int(ms.Message.Usage.CacheCreationInputTokens)

		case "content_block_start":
			cbs := event.AsContentBlockStart()
			if cbs.ContentBlock.Type == "tool_use" {
				tu := cbs.ContentBlock.AsToolUse()
				inToolUse = true
				currentToolID = tu.ID
				currentToolName = tu.Name
				currentToolJSON.Reset()
			}

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					select {
					case events <- StreamEvent{TextDelta: delta.Text}:
					case <-ctx.Done():
						return &LlmError{Kind: ErrNetwork, Message: "context cancelled", Cause: ctx.Err()}
					}
				}
			case "input_json_delta":
				currentToolJSON.WriteString(delta.PartialJSON)
			}

		case "content_block_stop":
			if inToolUse {
				raw := json.RawMessage(currentToolJSON.String())
				if len(raw) == 0 {
					raw = json.RawMessage("{}")
				}
				tu := module.ToolUse{ID: currentToolID, Name: currentToolName, Input: raw}
				select {
				case events <- StreamEvent{ToolUse: &tu}:
				case <-ctx.Done():
					return &LlmError{Kind: ErrNetwork, Message: "context cancelled", Cause: ctx.Err()}
				}
				inToolUse = false
			}

		case "message_delta":
			md := event.AsMessageDelta()
			if md.Usage.OutputTokens > 0 {
				outputTokens = int(md.Usage.OutputTokens)
			}
			if sr := string(md.Delta.StopReason); sr != "" {
				events <- StreamEvent{StopReason: toStopReason(sr)}
			}

		case "message_stop":
			events <- StreamEvent{Done: &DoneInfo{
				InputTokens:     inputTokens,
				OutputTokens:    outputTokens,
				CacheHitTokens:  cacheRead,
				CacheMissTokens: cacheWrite,
			}}
			return nil
		}
	}

	if err := stream.Err(); err != nil {
		return classifyAnthropicError(err)
	}
	return nil
}

func (c *AnthropicClient) CheckAPI(ctx context.Context, model string) (ApiCheckResult, error) {
	_, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return ApiCheckResult{OK: false, Message: err.Error()}, classifyAnthropicError(err)
	}
	return ApiCheckResult{OK: true, Message: "ok"}, nil
}

func toStopReason(s string) StopReason {
	switch s {
	case "max_tokens":
		return StopMaxTokens
	case "tool_use":
		return StopToolUse
	case "stop_sequence":
		return StopStopSequence
	default:
		return StopEndTurn
	}
}

func toAnthropicMessages(msgs []APIMessage) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		var blocks []anthropic.ContentBlockParamUnion
		if m.Content != "" {
			blocks = append(blocks, anthropic.NewTextBlock(m.Content))
		}
		for _, tu := range m.ToolUses {
			var input any
			_ = json.Unmarshal(tu.Input, &input)
			blocks = append(blocks, anthropic.NewToolUseBlock(tu.ID, input, tu.Name))
		}
		for _, tr := range m.ToolResults {
			blocks = append(blocks, anthropic.NewToolResultBlock(tr.ToolUseID, tr.Content, tr.IsError))
		}
		if len(blocks) == 0 {
			continue
		}
		role := anthropic.MessageParamRoleUser
		if m.Role == "assistant" {
			role = anthropic.MessageParamRoleAssistant
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}
	return out
}

func toAnthropicTools(defs []module.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		if !d.Enabled {
			continue
		}
		props := make(map[string]any, len(d.Parameters))
		var required []string
		for _, p := range d.Parameters {
			props[p.Name] = map[string]any{"type": string(p.Type), "description": p.Description}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        d.Name,
				Description: anthropic.String(d.LongDesc),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: props,
					Required:   required,
				},
			},
		})
	}
	return out
}

func classifyAnthropicError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &LlmError{Kind: ErrAPI, Status: apiErr.StatusCode, Body: apiErr.Message, Message: fmt.Sprintf("anthropic api error %d", apiErr.StatusCode), Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &LlmError{Kind: ErrNetwork, Message: "request cancelled or timed out", Cause: err}
	}
	return &LlmError{Kind: ErrStreamRead, Message: "stream read failed", Cause: err}
}
