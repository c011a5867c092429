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
package git

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/bigmoostache/loomspine/pkg/module"
	"github.com/bigmoostache/loomspine/pkg/state"
)

// runTimeout bounds a single git invocation, matching the teacher's
// shell-execution tools' default-timeout posture without adopting their
// full configurable range - git_run commands are expected to be short.
const runTimeout = 30 * time.Second

type runArgs struct {
	Command string `json:"command"`
	Cwd     string `json:"cwd"`
}

// executeRun implements git_run. Read-only commands (anything that doesn't
// match one of invalidationRules' TriggerPatterns, i.e. nothing that would
// itself require invalidating a cached result) are deduplicated into a
// reusable git_result panel keyed by source_command, the same way file_open
// dedupes by file_path; mutating commands always run fresh and are never
// cached, since by definition they invalidate whatever they'd otherwise
// populate.
func executeRun(tu module.ToolUse, s *state.State) module.ToolResult {
	var args runArgs
	if err := json.Unmarshal(tu.Input, &args); err != nil {
		return errResult(tu, "invalid arguments")
	}
	cmd := strings.TrimSpace(args.Command)
	if cmd == "" {
		return errResult(tu, "missing 'command' parameter")
	}
	if !strings.HasPrefix(cmd, "git") {
		return errResult(tu, "command must start with 'git'")
	}

	if isMutating(cmd) {
		out, err := runGit(cmd, args.Cwd)
		if err != nil {
			return module.ToolResult{ToolUseID: tu.ID, Content: out, IsError: true, ToolName: tu.Name}
		}
		return module.ToolResult{ToolUseID: tu.ID, Content: out, ToolName: tu.Name}
	}

	for _, e := range s.PanelsOfType(ContextType) {
		if e.Metadata["source_command"] == cmd && !e.CacheDeprecated && e.CachedContent != nil {
			return module.ToolResult{ToolUseID: tu.ID, Content: *e.CachedContent, ToolName: tu.Name}
		}
	}

	out, runErr := runGit(cmd, args.Cwd)

	var e *state.ContextElement
	for _, existing := range s.PanelsOfType(ContextType) {
		if existing.Metadata["source_command"] == cmd {
			e = existing
			break
		}
	}
	if e == nil {
		e = s.AddPanel("G", "git_result", ContextType, cmd, false)
		e.Metadata["source_command"] = cmd
		if args.Cwd != "" {
			e.Metadata["cwd"] = args.Cwd
		}
	}
	e.CachedContent = &out
	e.SourceHash = state.SourceHash(cmd, out)
	e.CacheDeprecated = false

	if runErr != nil {
		return module.ToolResult{ToolUseID: tu.ID, Content: out, IsError: true, ToolName: tu.Name}
	}
	return module.ToolResult{ToolUseID: tu.ID, Content: out, ToolName: tu.Name}
}

// runGit executes cmd (a full "git ..." command line) via the shell so that
// pipes and quoting in commit messages work the way an agent expects, the
// same posture the teacher's shell_execute tool takes for arbitrary commands.
func runGit(cmd, cwd string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	c := exec.CommandContext(ctx, "sh", "-c", cmd)
	if cwd != "" {
		c.Dir = cwd
	}
	var buf bytes.Buffer
	c.Stdout = &buf
	c.Stderr = &buf
	err := c.Run()
	return buf.String(), err
}

// isMutating reports whether cmd matches any invalidation rule's trigger,
// meaning it changes repository state in a way that would itself need to
// invalidate some cached read-only result - and so must never be cached.
func isMutating(cmd string) bool {
	for _, r := range invalidationRules {
		re, err := regexp.Compile(r.TriggerPattern)
		if err != nil {
			continue
		}
		if re.MatchString(cmd) {
			return true
		}
	}
	return false
}

func errResult(tu module.ToolUse, msg string) module.ToolResult {
	return module.ToolResult{ToolUseID: tu.ID, Content: msg, IsError: true, ToolName: tu.Name}
}
