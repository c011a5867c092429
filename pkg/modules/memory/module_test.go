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

func TestMemoryWrite_CreatesItemWithDefaultImportance(t *testing.T) {
	s := newInitializedState()
	res, handled := Module{}.ExecuteTool(module.ToolUse{
		ID: "t1", Name: "memory_write",
		Input: json.RawMessage(`{"tl_dr":"likes terse replies","contents":"the user dislikes verbose output"}`),
	}, s)
	require.True(t, handled)
	require.False(t, res.IsError)
	assert.Contains(t, res.Content, "created M1")

	st, ok := state.Ext[*State](s, ContextType)
	require.True(t, ok)
	require.Len(t, st.Memories, 1)
	assert.Equal(t, Medium, st.Memories[0].Importance)
}

func TestMemoryWrite_UpdatesExistingItem(t *testing.T) {
	s := newInitializedState()
	Module{}.ExecuteTool(module.ToolUse{ID: "t1", Name: "memory_write", Input: json.RawMessage(`{"tl_dr":"a","contents":"x"}`)}, s)

	res, _ := Module{}.ExecuteTool(module.ToolUse{
		ID: "t2", Name: "memory_write",
		Input: json.RawMessage(`{"id":"M1","importance":"critical"}`),
	}, s)
	require.False(t, res.IsError)

	st, _ := state.Ext[*State](s, ContextType)
	assert.Equal(t, Critical, st.Memories[0].Importance)
	assert.Equal(t, "a", st.Memories[0].TLDR) // untouched fields survive
}

func TestMemoryWrite_RemovesItem(t *testing.T) {
	s := newInitializedState()
	Module{}.ExecuteTool(module.ToolUse{ID: "t1", Name: "memory_write", Input: json.RawMessage(`{"tl_dr":"a"}`)}, s)
	res, _ := Module{}.ExecuteTool(module.ToolUse{ID: "t2", Name: "memory_write", Input: json.RawMessage(`{"id":"M1","remove":true}`)}, s)
	require.False(t, res.IsError)

	st, _ := state.Ext[*State](s, ContextType)
	assert.Empty(t, st.Memories)
}

func TestMemoryRead_ReturnsFullContents(t *testing.T) {
	s := newInitializedState()
	Module{}.ExecuteTool(module.ToolUse{ID: "t1", Name: "memory_write", Input: json.RawMessage(`{"tl_dr":"a","contents":"full text here"}`)}, s)

	res, handled := Module{}.ExecuteTool(module.ToolUse{ID: "t2", Name: "memory_read", Input: json.RawMessage(`{"id":"M1"}`)}, s)
	require.True(t, handled)
	require.False(t, res.IsError)
	assert.Equal(t, "full text here", res.Content)
}

func TestMemoryRead_UnknownIDErrors(t *testing.T) {
	s := newInitializedState()
	res, _ := Module{}.ExecuteTool(module.ToolUse{ID: "t1", Name: "memory_read", Input: json.RawMessage(`{"id":"M99"}`)}, s)
	assert.True(t, res.IsError)
}

func TestParseImportance_CaseInsensitiveWithMediumDefault(t *testing.T) {
	assert.Equal(t, High, ParseImportance("HIGH"))
	assert.Equal(t, Low, ParseImportance("low"))
	assert.Equal(t, Medium, ParseImportance(""))
	assert.Equal(t, Medium, ParseImportance("nonsense"))
}

func TestModule_SaveLoadRoundTrip(t *testing.T) {
	s := newInitializedState()
	Module{}.ExecuteTool(module.ToolUse{ID: "t1", Name: "memory_write", Input: json.RawMessage(`{"tl_dr":"a","contents":"b","labels":["x","y"]}`)}, s)

	raw, err := Module{}.SaveModuleData(s)
	require.NoError(t, err)

	s2 := state.New()
	require.NoError(t, Module{}.LoadModuleData(raw, s2))

	st, ok := state.Ext[*State](s2, ContextType)
	require.True(t, ok)
	require.Len(t, st.Memories, 1)
	assert.Equal(t, []string{"x", "y"}, st.Memories[0].Labels)
}
