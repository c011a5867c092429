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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigmoostache/loomspine/pkg/module"
	"github.com/bigmoostache/loomspine/pkg/state"
)

func newInitializedState() *state.State {
	s := state.New()
	Module{}.InitState(s)
	return s
}

func TestExecuteTodoWrite_CreatesItemAndDeprecatesPanel(t *testing.T) {
	s := newInitializedState()
	panel := s.AddPanel("P", ContextType, ContextType, "Todo", true)

	res, handled := Module{}.ExecuteTool(module.ToolUse{
		ID: "t1", Name: "todo_write",
		Input: json.RawMessage(`{"name":"write tests"}`),
	}, s)
	require.True(t, handled)
	require.False(t, res.IsError)
	assert.Contains(t, res.Content, "created X1")

	assert.True(t, s.FindPanelByUID(panel.UID).CacheDeprecated)

	st, ok := state.Ext[*State](s, ContextType)
	require.True(t, ok)
	require.Len(t, st.Items, 1)
	assert.Equal(t, Pending, st.Items[0].Status)
}

func TestExecuteTodoWrite_UpdatesStatus(t *testing.T) {
	s := newInitializedState()
	Module{}.ExecuteTool(module.ToolUse{ID: "t1", Name: "todo_write", Input: json.RawMessage(`{"name":"a"}`)}, s)

	res, _ := Module{}.ExecuteTool(module.ToolUse{
		ID: "t2", Name: "todo_write",
		Input: json.RawMessage(`{"id":"X1","status":"done"}`),
	}, s)
	require.False(t, res.IsError)

	st, _ := state.Ext[*State](s, ContextType)
	assert.Equal(t, Done, st.Items[0].Status)
}

func TestExecuteTodoWrite_UnknownIDErrors(t *testing.T) {
	s := newInitializedState()
	res, _ := Module{}.ExecuteTool(module.ToolUse{
		ID: "t1", Name: "todo_write", Input: json.RawMessage(`{"id":"X99","status":"done"}`),
	}, s)
	assert.True(t, res.IsError)
}

func TestExecuteTodoWrite_RemovesItem(t *testing.T) {
	s := newInitializedState()
	Module{}.ExecuteTool(module.ToolUse{ID: "t1", Name: "todo_write", Input: json.RawMessage(`{"name":"a"}`)}, s)
	res, _ := Module{}.ExecuteTool(module.ToolUse{
		ID: "t2", Name: "todo_write", Input: json.RawMessage(`{"id":"X1","remove":true}`),
	}, s)
	require.False(t, res.IsError)

	st, _ := state.Ext[*State](s, ContextType)
	assert.Empty(t, st.Items)
}

func TestWatcher_FiresWithIncompleteCountAndItemNames(t *testing.T) {
	s := newInitializedState()
	Module{}.ExecuteTool(module.ToolUse{ID: "t1", Name: "todo_write", Input: json.RawMessage(`{"name":"first task"}`)}, s)
	Module{}.ExecuteTool(module.ToolUse{ID: "t2", Name: "todo_write", Input: json.RawMessage(`{"name":"second task"}`)}, s)

	w := NewWatcher(0)
	result := w.Check(s)
	require.NotNil(t, result)
	assert.Contains(t, result.Description, "2 todo(s) remaining")
	assert.Contains(t, result.Description, "X1")
	assert.Contains(t, result.Description, "first task")
	assert.Contains(t, result.Description, "X2")
	assert.Contains(t, result.Description, "second task")
}

func TestWatcher_DoesNotFireWhenAllDone(t *testing.T) {
	s := newInitializedState()
	Module{}.ExecuteTool(module.ToolUse{ID: "t1", Name: "todo_write", Input: json.RawMessage(`{"name":"a"}`)}, s)
	Module{}.ExecuteTool(module.ToolUse{ID: "t2", Name: "todo_write", Input: json.RawMessage(`{"id":"X1","status":"done"}`)}, s)

	w := NewWatcher(0)
	assert.Nil(t, w.Check(s))
}

func TestModule_SaveLoadRoundTrip(t *testing.T) {
	s := newInitializedState()
	Module{}.ExecuteTool(module.ToolUse{ID: "t1", Name: "todo_write", Input: json.RawMessage(`{"name":"a"}`)}, s)

	raw, err := Module{}.SaveModuleData(s)
	require.NoError(t, err)

	s2 := state.New()
	require.NoError(t, Module{}.LoadModuleData(raw, s2))

	st, ok := state.Ext[*State](s2, ContextType)
	require.True(t, ok)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "a", st.Items[0].Name)
}
