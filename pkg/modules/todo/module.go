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
package todo

import (
	"encoding/json"
	"fmt"

	"github.com/bigmoostache/loomspine/pkg/module"
	"github.com/bigmoostache/loomspine/pkg/state"
)

// Module wires the todo checklist into the registry: one fixed panel, a
// handful of tools, and a persisted extension struct.
type Module struct{}

var _ module.Module = Module{}

func (Module) ID() string          { return ContextType }
func (Module) Name() string        { return "Todo" }
func (Module) Description() string { return "A checklist the model maintains across turns." }
func (Module) IsCore() bool        { return true }
func (Module) IsGlobal() bool      { return true }
func (Module) Dependencies() []string { return nil }

func (Module) FixedPanelTypes() []string   { return []string{ContextType} }
func (Module) DynamicPanelTypes() []string { return nil }

func (Module) FixedPanelDefaults() []module.FixedPanelDefault {
	return []module.FixedPanelDefault{{ContextType: ContextType, Title: "Todo"}}
}

func (Module) CreatePanel(contextType string) (state.Panel, bool) {
	if contextType != ContextType {
		return nil, false
	}
	return Panel{}, true
}

func (Module) ContextTypeMetadata() map[string]string {
	return map[string]string{ContextType: "checklist of pending, in-progress, and done work items"}
}

func (Module) ToolDefinitions() []module.ToolDefinition {
	return []module.ToolDefinition{
		{
			ID:        "todo_write",
			Name:      "todo_write",
			ShortDesc: "Create, update, or remove a todo item",
			LongDesc:  "Creates a new todo when id is omitted, otherwise updates or removes the item with that id. Status is one of pending, in_progress, done.",
			Category:  "todo",
			Enabled:   true,
			Parameters: []module.Parameter{
				{Name: "id", Type: module.ParamString, Required: false, Description: "existing item id; omit to create a new item"},
				{Name: "name", Type: module.ParamString, Required: false, Description: "item title"},
				{Name: "description", Type: module.ParamString, Required: false, Description: "longer description"},
				{Name: "status", Type: module.ParamString, Required: false, Description: "pending | in_progress | done"},
				{Name: "parent_id", Type: module.ParamString, Required: false, Description: "id of a parent item for one level of nesting"},
				{Name: "remove", Type: module.ParamBoolean, Required: false, Description: "delete the item instead of updating it"},
			},
		},
		{
			ID:        "todo_read",
			Name:      "todo_read",
			ShortDesc: "List all todo items",
			LongDesc:  "Returns every todo item with its id, status, and name.",
			Category:  "todo",
			Enabled:   true,
		},
	}
}

func (Module) ExecuteTool(tu module.ToolUse, s *state.State) (module.ToolResult, bool) {
	switch tu.Name {
	case "todo_write":
		return executeTodoWrite(tu, s), true
	case "todo_read":
		return executeTodoRead(tu, s), true
	default:
		return module.ToolResult{}, false
	}
}

type writeArgs struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	ParentID    string `json:"parent_id"`
	Remove      bool   `json:"remove"`
}

func executeTodoWrite(tu module.ToolUse, s *state.State) module.ToolResult {
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
		it := st.Add(args.Name, args.Description, args.ParentID)
		if args.Status != "" {
			if status, ok := ParseStatus(args.Status); ok {
				st.Items[len(st.Items)-1].Status = status
			}
		}
		state.SetExt(s, ContextType, st)
		s.TouchPanel(ContextType)
		return module.ToolResult{ToolUseID: tu.ID, Content: fmt.Sprintf("created %s", it.ID), ToolName: tu.Name}
	}

	item := st.Find(args.ID)
	if item == nil {
		return errResult(tu, fmt.Sprintf("no such todo: %s", args.ID))
	}

	if args.Remove {
		for i := range st.Items {
			if st.Items[i].ID == args.ID {
				st.Items = append(st.Items[:i], st.Items[i+1:]...)
				break
			}
		}
		state.SetExt(s, ContextType, st)
		s.TouchPanel(ContextType)
		return module.ToolResult{ToolUseID: tu.ID, Content: fmt.Sprintf("removed %s", args.ID), ToolName: tu.Name}
	}

	if args.Name != "" {
		item.Name = args.Name
	}
	if args.Description != "" {
		item.Description = args.Description
	}
	if args.ParentID != "" {
		item.ParentID = args.ParentID
	}
	if args.Status != "" {
		status, ok := ParseStatus(args.Status)
		if !ok {
			return errResult(tu, fmt.Sprintf("unknown status: %s", args.Status))
		}
		item.Status = status
	}

	state.SetExt(s, ContextType, st)
	s.TouchPanel(ContextType)
	return module.ToolResult{ToolUseID: tu.ID, Content: fmt.Sprintf("updated %s", args.ID), ToolName: tu.Name}
}

func executeTodoRead(tu module.ToolUse, s *state.State) module.ToolResult {
	st, ok := state.Ext[*State](s, ContextType)
	if !ok || len(st.Items) == 0 {
		return module.ToolResult{ToolUseID: tu.ID, Content: "(no todos)", ToolName: tu.Name}
	}
	var out string
	for _, it := range st.Items {
		out += "[" + it.ID + "] " + it.Status.Icon() + " — " + it.Name + "\n"
	}
	return module.ToolResult{ToolUseID: tu.ID, Content: out, ToolName: tu.Name}
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
	return map[string]string{"todo": "Manage the persistent checklist of outstanding work."}
}
