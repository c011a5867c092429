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

// Package files implements the built-in file module: file_open/file_edit/
// file_write tools over dynamic "file" panels whose content is populated by
// the cache refresh pipeline, never by the tool call itself.
package files

import (
	"encoding/json"

	"github.com/bigmoostache/loomspine/pkg/module"
	"github.com/bigmoostache/loomspine/pkg/state"
)

// ContextType is the dynamic panel type this module owns, and its module id.
const ContextType = "file"

// Module wires file open/edit/write into the registry. It carries no
// persisted extension state of its own: everything a file panel needs
// (path, cached body) already lives on its ContextElement.
type Module struct{}

var _ module.Module = Module{}

func (Module) ID() string          { return "files" }
func (Module) Name() string        { return "Files" }
func (Module) Description() string { return "File open, edit, write, and create tools" }
func (Module) IsCore() bool        { return true }
func (Module) IsGlobal() bool      { return true }
func (Module) Dependencies() []string { return nil }

func (Module) FixedPanelTypes() []string   { return nil }
func (Module) DynamicPanelTypes() []string { return []string{ContextType} }
func (Module) FixedPanelDefaults() []module.FixedPanelDefault { return nil }

func (Module) CreatePanel(contextType string) (state.Panel, bool) {
	if contextType != ContextType {
		return nil, false
	}
	return Panel{}, true
}

func (Module) ContextTypeMetadata() map[string]string {
	return map[string]string{ContextType: "the contents of a file opened into context"}
}

func (Module) ToolDefinitions() []module.ToolDefinition {
	return []module.ToolDefinition{
		{
			ID:        "file_open",
			Name:      "file_open",
			ShortDesc: "Read file into context",
			LongDesc:  "Opens a file and adds it to context so you can see its content. ALWAYS use this BEFORE file_edit to see current content - you need exact text for edits.",
			Category:  "files",
			Enabled:   true,
			Parameters: []module.Parameter{
				{Name: "path", Type: module.ParamString, Required: true, Description: "Path to the file to open"},
			},
		},
		{
			ID:        "file_edit",
			Name:      "file_edit",
			ShortDesc: "Modify file content",
			LongDesc:  "Edits a file by replacing exact text. PREFERRED over file_write for any modification - only use file_write to create new files or completely replace all content. IMPORTANT: 1) Use file_open FIRST to see current content. 2) old_string must be EXACT text from file (copy from context). 3) To append, use the last line as old_string and include it + new content in new_string.",
			Category:  "files",
			Enabled:   true,
			Parameters: []module.Parameter{
				{Name: "file_path", Type: module.ParamString, Required: true, Description: "Absolute path to the file to edit"},
				{Name: "old_string", Type: module.ParamString, Required: true, Description: "Exact text to find and replace (copy from file context)"},
				{Name: "new_string", Type: module.ParamString, Required: true, Description: "Replacement text"},
				{Name: "replace_all", Type: module.ParamBoolean, Required: false, Description: "Replace all occurrences (default: false)"},
			},
		},
		{
			ID:        "file_write",
			Name:      "file_write",
			ShortDesc: "Create or overwrite file",
			LongDesc:  "Writes complete contents to a file, creating it if it doesn't exist or replacing all content if it does. Use ONLY for creating new files or completely replacing file content. For targeted edits (changing specific sections, appending, inserting), ALWAYS prefer file_edit instead - it is safer and more precise.",
			Category:  "files",
			Enabled:   true,
			Parameters: []module.Parameter{
				{Name: "file_path", Type: module.ParamString, Required: true, Description: "Path to the file to write"},
				{Name: "contents", Type: module.ParamString, Required: true, Description: "Complete file contents to write"},
			},
		},
	}
}

func (Module) ExecuteTool(tu module.ToolUse, s *state.State) (module.ToolResult, bool) {
	switch tu.Name {
	case "file_open":
		return executeOpen(tu, s), true
	case "file_edit":
		return executeEdit(tu, s), true
	case "file_write":
		return executeWrite(tu, s), true
	default:
		return module.ToolResult{}, false
	}
}

// InvalidationRules is empty: file panels are invalidated directly by
// file_edit/file_write touching their own uid, not through the generic
// shell-command rule table the git module uses.
func (Module) InvalidationRules() []module.InvalidationRule { return nil }

func (Module) InitState(s *state.State)  {}
func (Module) ResetState(s *state.State) {}

func (Module) SaveModuleData(s *state.State) (json.RawMessage, error) {
	return json.RawMessage("null"), nil
}

func (Module) LoadModuleData(data json.RawMessage, s *state.State) error { return nil }

func (Module) ToolCategoryDescriptions() map[string]string {
	return map[string]string{"files": "Open, edit, and write files on disk."}
}
