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
	"context"
	"fmt"

	"github.com/bigmoostache/loomspine/pkg/cacherefresh"
	"github.com/bigmoostache/loomspine/pkg/state"
)

// Refresher implements cacherefresh.Refresher for ContextType "git_result".
// Unlike the files module, git output has no mtime+size proxy to check
// cheaply, so every refresh re-runs the command and fingerprints
// (command, output) directly, reporting Unchanged only when the rerun
// produced byte-identical output to what the panel already held.
type Refresher struct{}

var _ cacherefresh.Refresher = Refresher{}

func (Refresher) Refresh(ctx context.Context, req cacherefresh.CacheRequest) (cacherefresh.RefreshResult, error) {
	cmd := req.Metadata["source_command"]
	if cmd == "" {
		return cacherefresh.RefreshResult{}, fmt.Errorf("git: refresh request missing source_command")
	}
	cwd := req.Metadata["cwd"]

	out, err := runGit(cmd, cwd)
	if err != nil {
		return cacherefresh.RefreshResult{}, fmt.Errorf("git: rerun %q: %w", cmd, err)
	}

	fingerprint := state.SourceHash(cmd, out)
	if fingerprint == req.SourceHash {
		return cacherefresh.RefreshResult{Unchanged: true, SourceHash: fingerprint}, nil
	}
	return cacherefresh.RefreshResult{Content: out, SourceHash: fingerprint}, nil
}
