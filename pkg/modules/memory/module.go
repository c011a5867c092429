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
package memory

import (
	"encoding/json"
	"fmt"

	"github.com/bigmoostache/loomspine/pkg/module"
	"github.com/bigmoostache/loomspine/pkg/state"
)

// Module wires the memory store into the registry, the second example (after
// todo) of a persisted, non-file module extension.
type Module struct{}

var _ module.Module = Module{}

func (Module) ID() string             { return ContextType }
func (Module) Name() string           { return "Memory" }
func (Module) Description() string    { return "Durable notes the model can write and recall across turns." }
func (Module) IsCore() bool           { return true }
func (Module) IsGlobal() bool         { return true }
func (Module) Dependencies() []string { return nil }

func (Module) FixedPanelTypes() []string   { return []string{ContextType} }
func (Module) DynamicPanelTypes() []string { return nil }

func (Module) FixedPanelDefaults() []module.FixedPanelDefault {
	return []module.FixedPanelDefault{{ContextType: ContextType, Title: "Memory"}}
}

func (Module) CreatePanel(contextType string) (state.Panel, bool) {
	if contextType != ContextType {
		return nil, false
	}
	return Panel{}, true
}

func (Module) ContextTypeMetadata() map[string]string {
	return map[string]string{ContextType: "durable notes with a short summary and optional full contents"}
}

func (Module) ToolDefinitions() []module.ToolDefinition {
	return []module.ToolDefinition{
		{
			ID:        "memory_write",
			Name:      "memory_write",
			ShortDesc: "Create or update a memory",
			LongDesc:  "Creates a new memory when id is omitted, otherwise updates the memory with that id.",
			Category:  "memory",
			Enabled:   true,
			Parameters: []module.Parameter{
				{Name: "id", Type: module.ParamString, Required: false, Description: "existing memory id; omit to create a new one"},
				{Name: "tl_dr", Type: module.ParamString, Required: false, Description: "one-line summary shown when the memory is closed"},
				{Name: "contents", Type: module.ParamString, Required: false, Description: "full contents shown only when the memory is open"},
				{Name: "importance", Type: module.ParamString, Required: false, Description: "low | medium | high | critical"},
				{Name: "labels", Type: module.ParamArray, Required: false, Description: "freeform categorization labels", Items: &module.Parameter{Type: module.ParamString}},
				{Name: "remove", Type: module.ParamBoolean, Required: false, Description: "delete the memory instead of updating it"},
			},
		},
		{
			ID:        "memory_read",
			Name:      "memory_read",
			ShortDesc: "Read a memory's full contents",
			LongDesc:  "Returns the full contents of the memory with the given id.",
			Category:  "memory",
			Enabled:   true,
			Parameters: []module.Parameter{
				{Name: "id", Type: module.ParamString, Required: true, Description: "memory id, e.g. M3"},
			},
		},
	}
}

func (Module) ExecuteTool(tu module.ToolUse, s *state.State) (module.ToolResult, bool) {
	switch tu.Name {
	case "memory_write":
		return executeMemoryWrite(tu, s), true
	case "memory_read":
		return executeMemoryRead(tu, s), true
	default:
		return module.ToolResult{}, false
	}
}

type writeArgs struct {
	ID         string   `json:"id"`
	TLDR       string   `json:"tl_dr"`
	Contents   string   `json:"contents"`
	Importance string   `json:"importance"`
	Labels     []string `json:"labels"`
	Remove     bool     `json:"remove"`
}

func executeMemoryWrite(tu module.ToolUse, s *state.State) module.ToolResult {
	var args writeArgs
	if len(tu.Input) > 0 {
		if err := json.Unmarshal(tu.Input, &args); err != nil {
			return errResult(tu, fmt.Sprintf("invalid arguments: %v", err))
		}
	}

	st, ok := state.Ext[*State](s, ContextType)
	if !ok {
		st = NewState()
	}

	if args.ID == "" {
		it := st.Add(args.TLDR, args.Contents, ParseImportance(args.Importance), args.Labels)
		state.SetExt(s, ContextType, st)
		s.TouchPanel(ContextType)
		return module.ToolResult{ToolUseID: tu.ID, Content: fmt.Sprintf("created %s", it.ID), ToolName: tu.Name}
	}

	item := st.Find(args.ID)
	if item == nil {
		return errResult(tu, fmt.Sprintf("no such memory: %s", args.ID))
	}

	if args.Remove {
		st.Remove(args.ID)
		state.SetExt(s, ContextType, st)
		s.TouchPanel(ContextType)
		return module.ToolResult{ToolUseID: tu.ID, Content: fmt.Sprintf("removed %s", args.ID), ToolName: tu.Name}
	}

	if args.TLDR != "" {
		item.TLDR = args.TLDR
	}
	if args.Contents != "" {
		item.Contents = args.Contents
	}
	if args.Importance != "" {
		item.Importance = ParseImportance(args.Importance)
	}
	if args.Labels != nil {
		item.Labels = args.Labels
	}

	state.SetExt(s, ContextType, st)
	s.TouchPanel(ContextType)
	return module.ToolResult{ToolUseID: tu.ID, Content: fmt.Sprintf("updated %s", args.ID), ToolName: tu.Name}
}

func executeMemoryRead(tu module.ToolUse, s *state.State) module.ToolResult {
	var args struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(tu.Input, &args); err != nil {
		return errResult(tu, fmt.Sprintf("invalid arguments: %v", err))
	}

	st, ok := state.Ext[*State](s, ContextType)
	if !ok {
		return errResult(tu, fmt.Sprintf("no such memory: %s", args.ID))
	}
	item := st.Find(args.ID)
	if item == nil {
		return errResult(tu, fmt.Sprintf("no such memory: %s", args.ID))
	}
	return module.ToolResult{ToolUseID: tu.ID, Content: item.Contents, ToolName: tu.Name}
}

func errResult(tu module.ToolUse, msg string) module.ToolResult {
	return module.ToolResult{ToolUseID: tu.ID, Content: msg, IsError: true, ToolName: tu.Name}
}

func (Module) InvalidationRules() []module.InvalidationRule { return nil }

func (Module) InitState(s *state.State) {
	state.SetExt(s, ContextType, NewState())
}

func (Module) ResetState(s *state.State) {
	state.SetExt(s, ContextType, NewState())
}

func (Module) SaveModuleData(s *state.State) (json.RawMessage, error) {
	st, ok := state.Ext[*State](s, ContextType)
	if !ok {
		st = NewState()
	}
	return json.Marshal(st)
}

func (Module) LoadModuleData(data json.RawMessage, s *state.State) error {
	st := NewState()
	if len(data) > 0 {
		if err := json.Unmarshal(data, st); err != nil {
			return err
		}
	}
	state.SetExt(s, ContextType, st)
	return nil
}

func (Module) ToolCategoryDescriptions() map[string]string {
	return map[string]string{"memory": "Write and recall durable notes across turns."}
}
