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

// Package module defines the capability-provider contract every built-in
// and future panel/tool package implements, and the registry that composes
// them into one namespace of tools, panel types, and per-worker state.
package module

import (
	"encoding/json"

	"github.com/bigmoostache/loomspine/pkg/state"
)

// ParamType is a tool parameter's declared type.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamBoolean ParamType = "boolean"
	ParamInteger ParamType = "integer"
	ParamArray   ParamType = "array"
)

// Parameter describes one argument a tool accepts.
type Parameter struct {
	Name        string
	Type        ParamType
	Required    bool
	Default     any
	Description string
	Items       *Parameter // element type, only meaningful when Type == ParamArray
}

// ToolDefinition is everything the LLM's tool schema and the dispatcher's
// routing need to know about one tool.
type ToolDefinition struct {
	ID          string
	Name        string
	ShortDesc   string
	LongDesc    string
	Parameters  []Parameter
	Category    string
	Enabled     bool
}

// FixedPanelDefault describes one panel a module wants created, unasked, at
// worker init.
type FixedPanelDefault struct {
	ContextType      string
	Title            string
	DeprecatedInitial bool
}

// InvalidationRule declares that a tool invocation matching TriggerPattern
// (a regexp over the shell command or tool name) should deprecate every
// panel whose source matches one of PanelMatchPatterns.
type InvalidationRule struct {
	Name               string
	TriggerPattern     string
	PanelMatchPatterns []string
}

// ToolUse is the tool call envelope as emitted by the LLM stream.
type ToolUse struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResult is the result envelope sent back to the LLM. Content is always
// human-readable text; a failing tool sets IsError rather than returning a
// Go error — tool execution must never throw to the dispatcher.
type ToolResult struct {
	ToolUseID string
	Content   string
	IsError   bool
	ToolName  string
}

// Module is a polymorphic capability provider composed into the registry at
// startup. Implementations use ordinary Go method sets (vtables), never
// structural/reflective typing, matching the "dynamic dispatch over
// capabilities" design note.
type Module interface {
	ID() string
	Name() string
	Description() string
	IsCore() bool
	IsGlobal() bool
	Dependencies() []string

	FixedPanelTypes() []string
	DynamicPanelTypes() []string
	FixedPanelDefaults() []FixedPanelDefault
	// CreatePanel returns (panel, true) if this module owns contextType.
	CreatePanel(contextType string) (state.Panel, bool)
	ContextTypeMetadata() map[string]string

	ToolDefinitions() []ToolDefinition
	// ExecuteTool returns (result, true) if this module owns tu.Name.
	ExecuteTool(tu ToolUse, s *state.State) (ToolResult, bool)
	InvalidationRules() []InvalidationRule

	InitState(s *state.State)
	ResetState(s *state.State)
	SaveModuleData(s *state.State) (json.RawMessage, error)
	LoadModuleData(data json.RawMessage, s *state.State) error

	ToolCategoryDescriptions() map[string]string
}
