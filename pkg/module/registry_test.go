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
package module

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigmoostache/loomspine/pkg/state"
)

// fakeModule is a minimal Module used only to exercise the registry.
type fakeModule struct {
	id   string
	deps []string
	fp   []FixedPanelDefault
	tools []ToolDefinition
}

func (f fakeModule) ID() string          { return f.id }
func (f fakeModule) Name() string        { return f.id }
func (f fakeModule) Description() string { return "" }
func (f fakeModule) IsCore() bool        { return false }
func (f fakeModule) IsGlobal() bool      { return false }
func (f fakeModule) Dependencies() []string { return f.deps }

func (f fakeModule) FixedPanelTypes() []string     { return nil }
func (f fakeModule) DynamicPanelTypes() []string   { return nil }
func (f fakeModule) FixedPanelDefaults() []FixedPanelDefault { return f.fp }
func (f fakeModule) CreatePanel(contextType string) (state.Panel, bool) {
	if len(f.fp) > 0 && f.fp[0].ContextType == contextType {
		return nil, true
	}
	return nil, false
}
func (f fakeModule) ContextTypeMetadata() map[string]string { return nil }

func (f fakeModule) ToolDefinitions() []ToolDefinition { return f.tools }
func (f fakeModule) ExecuteTool(tu ToolUse, s *state.State) (ToolResult, bool) {
	for _, td := range f.tools {
		if td.Name == tu.Name {
			return ToolResult{ToolUseID: tu.ID, Content: "ok", ToolName: tu.Name}, true
		}
	}
	return ToolResult{}, false
}
func (f fakeModule) InvalidationRules() []InvalidationRule { return nil }

func (f fakeModule) InitState(s *state.State)  {}
func (f fakeModule) ResetState(s *state.State) {}
func (f fakeModule) SaveModuleData(s *state.State) (json.RawMessage, error) { return nil, nil }
func (f fakeModule) LoadModuleData(data json.RawMessage, s *state.State) error { return nil }

func (f fakeModule) ToolCategoryDescriptions() map[string]string { return nil }

func TestRegistry_InitOrdersLeavesFirst(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeModule{id: "b", deps: []string{"a"}})
	r.Register(fakeModule{id: "a"})

	require.NoError(t, r.Init(state.New()))

	ids := make([]string, 0, 2)
	for _, m := range r.Modules() {
		ids = append(ids, m.ID())
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestRegistry_InitDetectsCycle(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeModule{id: "a", deps: []string{"b"}})
	r.Register(fakeModule{id: "b", deps: []string{"a"}})

	err := r.Init(state.New())
	assert.Error(t, err)
}

func TestRegistry_InitCreatesFixedPanelOnce(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeModule{id: "a", fp: []FixedPanelDefault{{ContextType: "todo", Title: "Todos", DeprecatedInitial: true}}})

	s := state.New()
	require.NoError(t, r.Init(s))
	require.NoError(t, r.Init(s)) // calling Init twice must not duplicate the fixed panel

	assert.Len(t, s.PanelsOfType("todo"), 1)
	p := s.PanelsOfType("todo")[0]
	assert.True(t, p.Fixed)
	assert.True(t, p.CacheDeprecated)
}

func TestRegistry_ModuleForToolAndUnknown(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeModule{id: "a", tools: []ToolDefinition{{Name: "do_thing"}}})
	require.NoError(t, r.Init(state.New()))

	m, ok := r.ModuleForTool("do_thing")
	require.True(t, ok)
	assert.Equal(t, "a", m.ID())

	_, ok = r.ModuleForTool("nonexistent")
	assert.False(t, ok)
}

func TestRegistry_SuggestToolFuzzyMatches(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeModule{id: "a", tools: []ToolDefinition{{Name: "file_open"}}})
	require.NoError(t, r.Init(state.New()))

	suggestion, ok := r.SuggestTool("file_opn")
	require.True(t, ok)
	assert.Equal(t, "file_open", suggestion)
}

func TestRegistry_ActiveToolDefinitionsExcludesDisabled(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeModule{id: "a", tools: []ToolDefinition{{Name: "foo"}, {Name: "bar"}}})
	require.NoError(t, r.Init(state.New()))

	defs := r.ActiveToolDefinitions(map[string]bool{"bar": true})
	require.Len(t, defs, 1)
	assert.Equal(t, "foo", defs[0].Name)
}
