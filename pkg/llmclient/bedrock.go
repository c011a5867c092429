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
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go/document"

	"github.com/bigmoostache/loomspine/pkg/module"
)

// BedrockClient implements StreamingClient against Bedrock's Converse
// Stream API, demonstrating the abstract client contract against a second
// wire format alongside AnthropicClient.
type BedrockClient struct {
	client  *bedrockruntime.Client
	modelID string
}

// BedrockConfig configures credential resolution for NewBedrockClient.
type BedrockConfig struct {
	Region          string
	ModelID         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// NewBedrockClient resolves AWS credentials (explicit keys, else the
// default provider chain) and returns a client bound to cfg.ModelID.
func NewBedrockClient(ctx context.Context, cfg BedrockConfig) (*BedrockClient, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &BedrockClient{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		modelID: cfg.ModelID,
	}, nil
}

var _ StreamingClient = (*BedrockClient)(nil)

func (c *BedrockClient) Stream(ctx context.Context, req LlmRequest, events chan<- StreamEvent) error {
	modelID := req.Model
	if modelID == "" {
		modelID = c.modelID
	}

	var system []bedrocktypes.SystemContentBlock
	if req.SystemPrompt != "" {
		system = []bedrocktypes.SystemContentBlock{&bedrocktypes.SystemContentBlockMemberText{Value: req.SystemPrompt}}
	}

	messages, err := toConverseMessages(req.Messages)
	if err != nil {
		return &LlmError{Kind: ErrParse, Message: "convert messages", Cause: err}
	}

	input := &bedrockruntime.ConverseStreamInput{
		ModelId:  aws.String(modelID),
		Messages: messages,
		System:   system,
		InferenceConfig: &bedrocktypes.InferenceConfiguration{
			MaxTokens: aws.Int32(int32(req.MaxOutputTokens)),
		},
	}
	if len(req.Tools) > 0 {
		input.ToolConfig = toConverseToolConfig(req.Tools)
	}

	out, err := c.client.ConverseStream(ctx, input)
	if err != nil {
		return classifyBedrockError(err)
	}

	stream := out.GetStream()
	defer stream.Close()

	var (
		currentToolID   string
		currentToolName string
		currentToolJSON []byte
		inToolUse       bool
		inputTokens     int
		outputTokens    int
	)

	for event := range stream.Events() {
		switch v := event.(type) {
		case *bedrocktypes.ConverseStreamOutputMemberContentBlockStart:
			if tu, ok := v.Value.Start.(*bedrocktypes.ContentBlockStartMemberToolUse); ok {
				inToolUse = true
				currentToolID = aws.ToString(tu.Value.ToolUseId)
				currentToolName = aws.ToString(tu.Value.Name)
				currentToolJSON = currentToolJSON[:0]
			}

		case *bedrocktypes.ConverseStreamOutputMemberContentBlockDelta:
			switch d := v.Value.Delta.(type) {
			case *bedrocktypes.ContentBlockDeltaMemberText:
				if d.Value != "" {
					select {
					case events <- StreamEvent{TextDelta: d.Value}:
					case <-ctx.Done():
						return &LlmError{Kind: ErrNetwork, Message: "context cancelled", Cause: ctx.Err()}
					}
				}
			case *bedrocktypes.ContentBlockDeltaMemberToolUse:
				if d.Value.Input != nil {
					currentToolJSON = append(currentToolJSON, []byte(aws.ToString(d.Value.Input))...)
				}
			}

		case *bedrocktypes.ConverseStreamOutputMemberContentBlockStop:
			if inToolUse {
				raw := json.RawMessage(currentToolJSON)
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

		case *bedrocktypes.ConverseStreamOutputMemberMessageStop:
			events <- StreamEvent{StopReason: toStopReason(string(v.Value.StopReason))}

		case *bedrocktypes.ConverseStreamOutputMemberMetadata:
			if v.Value.Usage != nil {
				inputTokens = int(aws.ToInt32(v.Value.Usage.InputTokens))
				outputTokens = int(aws.ToInt32(v.Value.Usage.OutputTokens))
			}
		}
	}

	if err := stream.Err(); err != nil {
		return classifyBedrockError(err)
	}

	events <- StreamEvent{Done: &DoneInfo{InputTokens: inputTokens, OutputTokens: outputTokens}}
	return nil
}

func (c *BedrockClient) CheckAPI(ctx context.Context, model string) (ApiCheckResult, error) {
	modelID := model
	if modelID == "" {
		modelID = c.modelID
	}
	_, err := c.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(modelID),
		Messages: []bedrocktypes.Message{
			{Role: bedrocktypes.ConversationRoleUser, Content: []bedrocktypes.ContentBlock{
				&bedrocktypes.ContentBlockMemberText{Value: "ping"},
			}},
		},
		InferenceConfig: &bedrocktypes.InferenceConfiguration{MaxTokens: aws.Int32(1)},
	})
	if err != nil {
		return ApiCheckResult{OK: false, Message: err.Error()}, classifyBedrockError(err)
	}
	return ApiCheckResult{OK: true, Message: "ok"}, nil
}

func toConverseMessages(msgs []APIMessage) ([]bedrocktypes.Message, error) {
	out := make([]bedrocktypes.Message, 0, len(msgs))
	for _, m := range msgs {
		var blocks []bedrocktypes.ContentBlock
		if m.Content != "" {
			blocks = append(blocks, &bedrocktypes.ContentBlockMemberText{Value: m.Content})
		}
		for _, tu := range m.ToolUses {
			var input map[string]any
			if len(tu.Input) > 0 {
				if err := json.Unmarshal(tu.Input, &input); err != nil {
					return nil, err
				}
			}
			blocks = append(blocks, &bedrocktypes.ContentBlockMemberToolUse{
				Value: bedrocktypes.ToolUseBlock{
					ToolUseId: aws.String(tu.ID),
					Name:      aws.String(tu.Name),
					Input:     document.NewLazyDocument(input),
				},
			})
		}
		for _, tr := range m.ToolResults {
			blocks = append(blocks, &bedrocktypes.ContentBlockMemberToolResult{
				Value: bedrocktypes.ToolResultBlock{
					ToolUseId: aws.String(tr.ToolUseID),
					Content:   []bedrocktypes.ToolResultContentBlock{&bedrocktypes.ToolResultContentBlockMemberText{Value: tr.Content}},
					Status:    toolResultStatus(tr.IsError),
				},
			})
		}
		if len(blocks) == 0 {
			continue
		}
		role := bedrocktypes.ConversationRoleUser
		if m.Role == "assistant" {
			role = bedrocktypes.ConversationRoleAssistant
		}
		out = append(out, bedrocktypes.Message{Role: role, Content: blocks})
	}
	return out, nil
}

func toolResultStatus(isError bool) bedrocktypes.ToolResultStatus {
	if isError {
		return bedrocktypes.ToolResultStatusError
	}
	return bedrocktypes.ToolResultStatusSuccess
}

func toConverseToolConfig(defs []module.ToolDefinition) *bedrocktypes.ToolConfiguration {
	var tools []bedrocktypes.Tool
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
		schema := map[string]any{"type": "object", "properties": props, "required": required}
		tools = append(tools, &bedrocktypes.ToolMemberToolSpec{
			Value: bedrocktypes.ToolSpecification{
				Name:        aws.String(d.Name),
				Description: aws.String(d.LongDesc),
				InputSchema: &bedrocktypes.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schema)},
			},
		})
	}
	if len(tools) == 0 {
		return nil
	}
	return &bedrocktypes.ToolConfiguration{Tools: tools}
}

func classifyBedrockError(err error) error {
	if err == nil {
		return nil
	}
	return &LlmError{Kind: ErrNetwork, Message: "bedrock request failed", Cause: err}
}
