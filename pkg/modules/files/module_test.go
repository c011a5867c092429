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
package files

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigmoostache/loomspine/pkg/cacherefresh"
	"github.com/bigmoostache/loomspine/pkg/module"
	"github.com/bigmoostache/loomspine/pkg/state"
)

// TestOpenFileFlow exercises the spec's end-to-end scenario 1: opening a
// 420-byte file creates a deprecated panel, and one refresh tick populates
// it with the exact file content at a single page.
func TestOpenFileFlow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "b.txt")
	body := strings.Repeat("x", 420)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	s := state.New()
	res, handled := Module{}.ExecuteTool(module.ToolUse{
		ID: "t1", Name: "file_open", Input: json.RawMessage(`{"path":"` + path + `"}`),
	}, s)
	require.True(t, handled)
	require.False(t, res.IsError)

	panels := s.PanelsOfType(ContextType)
	require.Len(t, panels, 1)
	p := panels[0]
	assert.Equal(t, "P1", p.ID)
	assert.True(t, p.CacheDeprecated)
	assert.Nil(t, p.CachedContent)

	result, err := Refresher{}.Refresh(context.Background(), cacherefresh.CacheRequest{
		UID: p.UID, ContextType: ContextType, Metadata: p.Metadata,
	})
	require.NoError(t, err)
	assert.False(t, result.Unchanged)
	assert.Equal(t, body, result.Content)

	pipeline := cacherefresh.New(1)
	pipeline.Apply(s, cacherefresh.CacheUpdate{
		UID: p.UID, Content: result.Content, TokenCount: state.EstimateTokens(result.Content), SourceHash: result.SourceHash,
	})

	got := s.FindPanelByUID(p.UID)
	require.NotNil(t, got.CachedContent)
	assert.Equal(t, body, *got.CachedContent)
	assert.False(t, got.CacheDeprecated)
	assert.Equal(t, 1, got.TotalPages)
	assert.Equal(t, 105, got.TokenCount) // 420 bytes / 4 chars-per-token
}

func TestExecuteOpen_DuplicatePathReturnsAlreadyOpenMessage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	s := state.New()
	Module{}.ExecuteTool(module.ToolUse{ID: "t1", Name: "file_open", Input: json.RawMessage(`{"path":"` + path + `"}`)}, s)
	res, _ := Module{}.ExecuteTool(module.ToolUse{ID: "t2", Name: "file_open", Input: json.RawMessage(`{"path":"` + path + `"}`)}, s)

	assert.False(t, res.IsError)
	assert.Contains(t, res.Content, "already open")
	assert.Len(t, s.PanelsOfType(ContextType), 1)
}

func TestExecuteOpen_MissingFileErrors(t *testing.T) {
	s := state.New()
	res, _ := Module{}.ExecuteTool(module.ToolUse{
		ID: "t1", Name: "file_open", Input: json.RawMessage(`{"path":"/nonexistent/path.txt"}`),
	}, s)
	assert.True(t, res.IsError)
}

func TestExecuteEdit_UniqueReplaceWritesFileAndTouchesPanel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.go")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	s := state.New()
	Module{}.ExecuteTool(module.ToolUse{ID: "t1", Name: "file_open", Input: json.RawMessage(`{"path":"` + path + `"}`)}, s)
	panel := s.PanelsOfType(ContextType)[0]
	panel.CacheDeprecated = false // simulate it having already been refreshed

	res, _ := Module{}.ExecuteTool(module.ToolUse{
		ID: "t2", Name: "file_edit",
		Input: json.RawMessage(`{"file_path":"` + path + `","old_string":"world","new_string":"go"}`),
	}, s)
	require.False(t, res.IsError)

	updated, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello go", string(updated))
	assert.True(t, s.FindPanelByUID(panel.UID).CacheDeprecated)
}

func TestExecuteEdit_AmbiguousOldStringWithoutReplaceAllErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.go")
	require.NoError(t, os.WriteFile(path, []byte("aaa"), 0o644))

	s := state.New()
	res, _ := Module{}.ExecuteTool(module.ToolUse{
		ID: "t1", Name: "file_edit",
		Input: json.RawMessage(`{"file_path":"` + path + `","old_string":"a","new_string":"b"}`),
	}, s)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "not unique")
}

func TestExecuteEdit_ReplaceAllReplacesEveryOccurrence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.go")
	require.NoError(t, os.WriteFile(path, []byte("aaa"), 0o644))

	s := state.New()
	res, _ := Module{}.ExecuteTool(module.ToolUse{
		ID: "t1", Name: "file_edit",
		Input: json.RawMessage(`{"file_path":"` + path + `","old_string":"a","new_string":"b","replace_all":true}`),
	}, s)
	require.False(t, res.IsError)

	updated, _ := os.ReadFile(path)
	assert.Equal(t, "bbb", string(updated))
}

func TestExecuteWrite_CreatesNewFileUnderMissingDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "new.txt")

	s := state.New()
	res, _ := Module{}.ExecuteTool(module.ToolUse{
		ID: "t1", Name: "file_write",
		Input: json.RawMessage(`{"file_path":"` + path + `","contents":"hi"}`),
	}, s)
	require.False(t, res.IsError)
	assert.Contains(t, res.Content, "Created")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(got))
}

func TestExecuteWrite_OverwritesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "existing.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	s := state.New()
	res, _ := Module{}.ExecuteTool(module.ToolUse{
		ID: "t1", Name: "file_write",
		Input: json.RawMessage(`{"file_path":"` + path + `","contents":"new"}`),
	}, s)
	require.False(t, res.IsError)
	assert.Contains(t, res.Content, "Overwrote")
}
