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
package callback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigmoostache/loomspine/pkg/module"
)

func intPtr(n int) *int { return &n }

func moduleToolResult(content string) module.ToolResult {
	return module.ToolResult{ToolUseID: "tu1", Content: content, ToolName: "file_edit"}
}

func TestRegistry_AddAssignsSequentialIDs(t *testing.T) {
	r := NewRegistry()
	id1, err := r.Add(Definition{Name: "echo one", Pattern: "*.go"})
	require.NoError(t, err)
	id2, err := r.Add(Definition{Name: "echo two", Pattern: "*.rs"})
	require.NoError(t, err)

	assert.Equal(t, "CB1", id1)
	assert.Equal(t, "CB2", id2)
	assert.Len(t, r.Definitions, 2)
}

func TestRegistry_RemoveAndFind(t *testing.T) {
	r := NewRegistry()
	id, err := r.Add(Definition{Name: "echo", Pattern: "*.go"})
	require.NoError(t, err)

	_, ok := r.Find(id)
	require.True(t, ok)

	require.True(t, r.Remove(id))
	_, ok = r.Find(id)
	assert.False(t, ok)
	assert.False(t, r.Remove(id))
}

func TestDefinition_ValidateRequiresTimeoutWhenBlocking(t *testing.T) {
	def := Definition{Name: "check", Pattern: "*.go", Blocking: true}
	err := def.Validate()
	require.Error(t, err)

	def.TimeoutSecs = intPtr(5)
	require.NoError(t, def.Validate())
}

func TestEngine_BlockingSuccessAugments(t *testing.T) {
	e := NewEngine(t.TempDir(), NewRegistry())
	defs := []Definition{{
		ID: "CB1", Name: "true", Pattern: "*.go", Blocking: true,
		TimeoutSecs: intPtr(2), SuccessMessage: "build ok",
	}}

	results := e.Dispatch(defs, []string{"main.go"})
	require.Len(t, results, 1)
	assert.False(t, results[0].IsError)
	assert.Equal(t, "build ok", results[0].Augment)
}

func TestEngine_BlockingFailureReplaces(t *testing.T) {
	e := NewEngine(t.TempDir(), NewRegistry())
	defs := []Definition{{
		ID: "CB1", Name: "sh -c 'echo boom; exit 1'", Pattern: "*.go", Blocking: true,
		TimeoutSecs: intPtr(2),
	}}

	results := e.Dispatch(defs, []string{"main.go"})
	require.Len(t, results, 1)
	assert.True(t, results[0].IsError)
	assert.Contains(t, results[0].Replace, "boom")
}

func TestEngine_NonMatchingPatternSkipsCallback(t *testing.T) {
	e := NewEngine(t.TempDir(), NewRegistry())
	defs := []Definition{{
		ID: "CB1", Name: "true", Pattern: "*.rs", Blocking: true, TimeoutSecs: intPtr(2),
	}}

	results := e.Dispatch(defs, []string{"main.go"})
	assert.Empty(t, results)
}

func TestEngine_OncePerBatchGroupsFiles(t *testing.T) {
	e := NewEngine(t.TempDir(), NewRegistry())
	defs := []Definition{{
		ID: "CB1", Name: "env | grep CP_CHANGED_FILES", Pattern: "**/*.go",
		Blocking: true, TimeoutSecs: intPtr(2), OncePerBatch: true,
	}}

	results := e.Dispatch(defs, []string{"a.go", "sub/b.go"})
	require.Len(t, results, 1)
	assert.False(t, results[0].IsError)
}

func TestEngine_NonBlockingReportsAsync(t *testing.T) {
	e := NewEngine(t.TempDir(), NewRegistry())
	defs := []Definition{{
		ID: "CB1", Name: "true", Pattern: "*.go", Blocking: false,
	}}

	results := e.Dispatch(defs, []string{"main.go"})
	assert.Empty(t, results)

	select {
	case outcome := <-e.Async:
		assert.Equal(t, "CB1", outcome.Definition.ID)
		assert.Contains(t, outcome.Message, "succeeded")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async callback outcome")
	}
}

func TestEngine_OneAtATimeDropsOverlap(t *testing.T) {
	e := NewEngine(t.TempDir(), NewRegistry())
	def := Definition{ID: "CB1", Name: "sleep 1", Pattern: "*.go", Blocking: false, OneAtATime: true}

	e.runAsync(def, []string{"main.go"})
	require.Eventually(t, func() bool { return e.alreadyRunning("CB1") }, time.Second, 10*time.Millisecond)

	results := e.Dispatch([]Definition{def}, []string{"main.go"})
	assert.Empty(t, results)

	select {
	case <-e.Async:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for the original async callback to finish")
	}
}

func TestEngine_TimeoutReplacesWithError(t *testing.T) {
	e := NewEngine(t.TempDir(), NewRegistry())
	defs := []Definition{{
		ID: "CB1", Name: "sleep 5", Pattern: "*.go", Blocking: true, TimeoutSecs: intPtr(1),
	}}

	results := e.Dispatch(defs, []string{"main.go"})
	require.Len(t, results, 1)
	assert.True(t, results[0].IsError)
	assert.Contains(t, results[0].Replace, "timed out")
}

func TestEngine_AfterFileEditAugmentsFromRegistry(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Add(Definition{Name: "true", Pattern: "*.go", Blocking: true, TimeoutSecs: intPtr(2), SuccessMessage: "lint ok"})
	require.NoError(t, err)

	e := NewEngine(t.TempDir(), reg)
	result := e.AfterFileEdit(moduleToolResult("wrote file"), []string{"main.go"})
	assert.Contains(t, result.Content, "wrote file")
	assert.Contains(t, result.Content, "lint ok")
}

func TestEngine_AfterFileEditReplacesOnFailure(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Add(Definition{Name: "sh -c 'echo bad; exit 1'", Pattern: "*.go", Blocking: true, TimeoutSecs: intPtr(2)})
	require.NoError(t, err)

	e := NewEngine(t.TempDir(), reg)
	result := e.AfterFileEdit(moduleToolResult("wrote file"), []string{"main.go"})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "bad")
}
