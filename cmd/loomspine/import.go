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
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bigmoostache/loomspine/internal/config"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the worker's persisted state.json with the given export file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

// runImport validates that the given file is at least well-formed JSON
// shaped like a persistence envelope (the actual field-by-field tolerance
// lives in state.Load, which never fails on unknown/missing fields), then
// installs it atomically the same way pkg/state/persistence.go does its own
// writes: temp file in the same directory, fsync, rename over the target.
func runImport(cmd *cobra.Command, args []string) error {
	src := args[0]
	buf, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(buf, &probe); err != nil {
		return fmt.Errorf("%s is not valid JSON: %w", src, err)
	}

	if err := config.EnsureDataDir(cfg.DataDir); err != nil {
		return fmt.Errorf("ensure data dir: %w", err)
	}
	dest := pathFor(cfg)

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".state-import-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}

	fmt.Printf("loomspine: imported state from %s into %s\n", src, dest)
	return nil
}
