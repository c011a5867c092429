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
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigmoostache/loomspine/pkg/module"
	"github.com/bigmoostache/loomspine/pkg/state"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(cmd.Env,
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
	}
	run("init")
	run("config", "user.name", "test")
	run("config", "user.email", "test@example.com")
	readmePath := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(readmePath, []byte("hello\n"), 0o644))
	run("add", "README.md")
	run("commit", "-m", "initial")
	return dir
}

func runGitRun(t *testing.T, s *state.State, dir, command string) module.ToolResult {
	t.Helper()
	args, err := json.Marshal(runArgs{Command: command, Cwd: dir})
	require.NoError(t, err)
	res, handled := Module{}.ExecuteTool(module.ToolUse{ID: "t1", Name: "git_run", Input: args}, s)
	require.True(t, handled)
	return res
}

func TestGitAddInvalidatesDiffButNotLog(t *testing.T) {
	dir := initRepo(t)
	srcPath := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(srcPath, 0o750))
	mainPath := filepath.Join(srcPath, "main.rs")
	require.NoError(t, os.WriteFile(mainPath, []byte("fn main() {}"), 0o644))

	s := state.New()

	res := runGitRun(t, s, dir, "git diff")
	require.False(t, res.IsError)
	res = runGitRun(t, s, dir, "git log")
	require.False(t, res.IsError)

	var diffPanel, logPanel *state.ContextElement
	for _, e := range s.PanelsOfType(ContextType) {
		switch e.Metadata["source_command"] {
		case "git diff":
			diffPanel = e
		case "git log":
			logPanel = e
		}
	}
	require.NotNil(t, diffPanel)
	require.NotNil(t, logPanel)

	rules := Module{}.InvalidationRules()
	matched := false
	for _, r := range rules {
		if r.Name != "staging" {
			continue
		}
		matched = true
		assert.Regexp(t, r.TriggerPattern, "git add src/main.rs")
	}
	assert.True(t, matched, "expected a staging invalidation rule")

	// Apply every rule the command triggers the way the dispatcher does, then
	// check which of the two panels ended up deprecated.
	for _, r := range rules {
		if !regexp.MustCompile(r.TriggerPattern).MatchString("git add src/main.rs") {
			continue
		}
		for _, p := range r.PanelMatchPatterns {
			re := regexp.MustCompile(p)
			for _, e := range s.PanelsOfType(ContextType) {
				if re.MatchString(e.Metadata["source_command"]) {
					s.TouchPanelByUID(e.UID)
				}
			}
		}
	}
	assert.True(t, s.FindPanelByUID(diffPanel.UID).CacheDeprecated, "git add must deprecate the git diff panel")
	assert.False(t, s.FindPanelByUID(logPanel.UID).CacheDeprecated, "git add must leave the git log panel alone")
}

func TestExecuteRun_RejectsNonGitCommand(t *testing.T) {
	s := state.New()
	res := runGitRun(t, s, t.TempDir(), "rm -rf /")
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "must start with 'git'")
}

func TestExecuteRun_CachesReadOnlyCommandAcrossCalls(t *testing.T) {
	dir := initRepo(t)
	s := state.New()

	first := runGitRun(t, s, dir, "git status")
	require.False(t, first.IsError)
	second := runGitRun(t, s, dir, "git status")
	require.False(t, second.IsError)
	assert.Equal(t, first.Content, second.Content)

	panels := s.PanelsOfType(ContextType)
	require.Len(t, panels, 1)
}

func TestExecuteRun_MutatingCommandNeverCached(t *testing.T) {
	dir := initRepo(t)
	s := state.New()

	res := runGitRun(t, s, dir, "git checkout -b feature")
	require.False(t, res.IsError)

	assert.Empty(t, s.PanelsOfType(ContextType))
}

func TestIsMutating(t *testing.T) {
	assert.True(t, isMutating("git commit -m x"))
	assert.True(t, isMutating("git checkout main"))
	assert.False(t, isMutating("git status"))
	assert.False(t, isMutating("git log -5"))
}
