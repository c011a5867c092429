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
	"fmt"
	"os"

	"github.com/bigmoostache/loomspine/pkg/cacherefresh"
	"github.com/bigmoostache/loomspine/pkg/state"
)

// Refresher implements cacherefresh.Refresher for ContextType "file": it
// reads the file named by the panel's "file_path" metadata, fingerprinting
// it by mtime+size (§3's "opaque hash of the input") to short-circuit when
// nothing has changed since the last refresh.
type Refresher struct{}

var _ cacherefresh.Refresher = Refresher{}

func (Refresher) Refresh(ctx context.Context, req cacherefresh.CacheRequest) (cacherefresh.RefreshResult, error) {
	path := req.Metadata["file_path"]
	if path == "" {
		return cacherefresh.RefreshResult{}, fmt.Errorf("files: refresh request missing file_path")
	}

	info, err := os.Stat(path)
	if err != nil {
		return cacherefresh.RefreshResult{}, fmt.Errorf("files: stat %q: %w", path, err)
	}

	fingerprint := state.SourceHash(path, fmt.Sprintf("%d", info.ModTime().UnixNano()), fmt.Sprintf("%d", info.Size()))
	if fingerprint == req.SourceHash {
		return cacherefresh.RefreshResult{Unchanged: true, SourceHash: fingerprint}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cacherefresh.RefreshResult{}, fmt.Errorf("files: read %q: %w", path, err)
	}

	return cacherefresh.RefreshResult{Content: string(raw), SourceHash: fingerprint}, nil
}
