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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bigmoostache/loomspine/internal/diff"
	"github.com/bigmoostache/loomspine/pkg/module"
	"github.com/bigmoostache/loomspine/pkg/state"
)

type openArgs struct {
	Path string `json:"path"`
}

// executeOpen implements file_open, ported field-for-field from
// cp-mod-files's tools::file::execute_open: it never reads the file itself,
// only checks existence and registers a deprecated panel for the cache
// refresh pipeline to populate.
func executeOpen(tu module.ToolUse, s *state.State) module.ToolResult {
	var args openArgs
	if err := json.Unmarshal(tu.Input, &args); err != nil || args.Path == "" {
		return errResult(tu, "missing 'path' parameter")
	}
	path := args.Path

	for _, e := range s.PanelsOfType(ContextType) {
		if e.Metadata["file_path"] == path {
			return module.ToolResult{ToolUseID: tu.ID, Content: fmt.Sprintf("File '%s' is already open in context", path), ToolName: tu.Name}
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return errResult(tu, fmt.Sprintf("File '%s' not found", path))
	}
	if info.IsDir() {
		return errResult(tu, fmt.Sprintf("'%s' is not a file", path))
	}

	e := s.AddPanel("P", "file", ContextType, filepath.Base(path), false)
	e.Metadata["file_path"] = path
	e.CacheDeprecated = true

	return module.ToolResult{ToolUseID: tu.ID, Content: fmt.Sprintf("Opened '%s' as %s", path, e.ID), ToolName: tu.Name}
}

type editArgs struct {
	FilePath   string `json:"file_path"`
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all"`
}

// executeEdit implements file_edit: reads the current content directly
// (synchronously, the way a tool execution is expected to act), replaces
// old_string with new_string, writes the result back, and reports a
// "path: +N -M" line-count summary of the change. Any panel with this file open is deprecated so the
// refresh pipeline re-reads it rather than the tool mutating CachedContent
// itself.
func executeEdit(tu module.ToolUse, s *state.State) module.ToolResult {
	var args editArgs
	if err := json.Unmarshal(tu.Input, &args); err != nil {
		return errResult(tu, fmt.Sprintf("invalid arguments: %v", err))
	}
	if args.FilePath == "" {
		return errResult(tu, "missing 'file_path' parameter")
	}
	if args.OldString == "" {
		return errResult(tu, "missing 'old_string' parameter")
	}

	raw, err := os.ReadFile(args.FilePath)
	if err != nil {
		return errResult(tu, fmt.Sprintf("cannot read '%s': %v", args.FilePath, err))
	}
	old := string(raw)

	count := strings.Count(old, args.OldString)
	if count == 0 {
		return errResult(tu, "old_string not found in file")
	}
	if count > 1 && !args.ReplaceAll {
		return errResult(tu, fmt.Sprintf("old_string is not unique (%d occurrences); set replace_all or include more context", count))
	}

	var updated string
	if args.ReplaceAll {
		updated = strings.ReplaceAll(old, args.OldString, args.NewString)
	} else {
		updated = strings.Replace(old, args.OldString, args.NewString, 1)
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(args.FilePath); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(args.FilePath, []byte(updated), perm); err != nil {
		return errResult(tu, fmt.Sprintf("cannot write '%s': %v", args.FilePath, err))
	}

	touchFilePanels(s, args.FilePath)

	return module.ToolResult{
		ToolUseID: tu.ID,
		Content:   diff.Summary(old, updated, args.FilePath),
		ToolName:  tu.Name,
	}
}

type writeArgs struct {
	FilePath string `json:"file_path"`
	Contents string `json:"contents"`
}

// executeWrite implements file_write: creates or completely overwrites
// file_path, deprecating any open panel for the same path.
func executeWrite(tu module.ToolUse, s *state.State) module.ToolResult {
	var args writeArgs
	if err := json.Unmarshal(tu.Input, &args); err != nil {
		return errResult(tu, fmt.Sprintf("invalid arguments: %v", err))
	}
	if args.FilePath == "" {
		return errResult(tu, "missing 'file_path' parameter")
	}

	existed := false
	if _, err := os.Stat(args.FilePath); err == nil {
		existed = true
	}

	if dir := filepath.Dir(args.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errResult(tu, fmt.Sprintf("cannot create directory for '%s': %v", args.FilePath, err))
		}
	}
	if err := os.WriteFile(args.FilePath, []byte(args.Contents), 0o644); err != nil {
		return errResult(tu, fmt.Sprintf("cannot write '%s': %v", args.FilePath, err))
	}

	touchFilePanels(s, args.FilePath)

	verb := "Created"
	if existed {
		verb = "Overwrote"
	}
	return module.ToolResult{
		ToolUseID: tu.ID,
		Content:   fmt.Sprintf("%s '%s' (%d bytes)", verb, args.FilePath, len(args.Contents)),
		ToolName:  tu.Name,
	}
}

// touchFilePanels deprecates every open "file" panel backed by path, so the
// cache refresh pipeline re-reads the on-disk content rather than the tool
// rewriting CachedContent itself.
func touchFilePanels(s *state.State, path string) {
	for _, e := range s.PanelsOfType(ContextType) {
		if e.Metadata["file_path"] == path {
			s.TouchPanelByUID(e.UID)
		}
	}
}

func errResult(tu module.ToolUse, msg string) module.ToolResult {
	return module.ToolResult{ToolUseID: tu.ID, Content: msg, IsError: true, ToolName: tu.Name}
}
