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

// Package git implements the built-in git module: a single git_run tool
// that shells out to the git binary, backed by dynamic "git_result" panels
// for read-only commands and a shell-command invalidation table (ported
// from the original implementation's cache_invalidation rules) that
// deprecates those panels whenever a later command changes what they'd show.
package git

import (
	"encoding/json"

	"github.com/bigmoostache/loomspine/pkg/module"
	"github.com/bigmoostache/loomspine/pkg/state"
)

// ContextType is the dynamic panel type this module owns, and doubles as
// the module id's companion context kind.
const ContextType = "git_result"

// Module wires the git_run tool and its invalidation rules into the
// registry. Like files, it carries no extension state of its own: every
// result lives on its ContextElement.
type Module struct{}

var _ module.Module = Module{}

func (Module) ID() string             { return "git" }
func (Module) Name() string           { return "Git" }
func (Module) Description() string    { return "Run git commands with cache-aware result panels" }
func (Module) IsCore() bool           { return true }
func (Module) IsGlobal() bool         { return true }
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
	return map[string]string{ContextType: "the output of a previously run git command"}
}

func (Module) ToolDefinitions() []module.ToolDefinition {
	return []module.ToolDefinition{
		{
			ID:        "git_run",
			Name:      "git_run",
			ShortDesc: "Run a git command",
			LongDesc: "Runs a git command (e.g. 'git status', 'git diff', 'git log -5', 'git commit -m \"...\"') " +
				"in the repository working directory. Read-only commands (status, diff, log, show, branch, ...) are " +
				"cached in a result panel that is reused across calls with the same command until something " +
				"invalidates it; mutating commands (commit, checkout, merge, push, ...) run fresh every time and " +
				"their output is returned directly. Prefer this over shell_execute for anything git-related so the " +
				"cache invalidation rules can keep stale diffs and logs out of context.",
			Category: "git",
			Enabled:  true,
			Parameters: []module.Parameter{
				{Name: "command", Type: module.ParamString, Required: true, Description: "Full git command line, including the leading 'git' (e.g. 'git status', 'git diff HEAD~1')"},
				{Name: "cwd", Type: module.ParamString, Required: false, Description: "Working directory to run the command in (default: current directory)"},
			},
		},
	}
}

func (Module) ExecuteTool(tu module.ToolUse, s *state.State) (module.ToolResult, bool) {
	switch tu.Name {
	case "git_run":
		return executeRun(tu, s), true
	default:
		return module.ToolResult{}, false
	}
}

// InvalidationRules ports the original implementation's 11-rule table
// verbatim in meaning: each rule's TriggerPattern matches the full "git ..."
// command line the dispatcher resolves from the tool's "command" argument,
// and its PanelMatchPatterns match the source_command metadata of every
// git_result panel that command invalidates.
func (Module) InvalidationRules() []module.InvalidationRule {
	return invalidationRules
}

func (Module) InitState(s *state.State)  {}
func (Module) ResetState(s *state.State) {}

func (Module) SaveModuleData(s *state.State) (json.RawMessage, error) {
	return json.RawMessage("null"), nil
}

func (Module) LoadModuleData(data json.RawMessage, s *state.State) error { return nil }

func (Module) ToolCategoryDescriptions() map[string]string {
	return map[string]string{"git": "Run git commands against the repository."}
}
