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
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the worker's persisted state.json to stdout or --out",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "destination file (default: stdout)")
}

// runExport copies the worker's on-disk persistence envelope verbatim,
// rather than re-serializing an in-memory State, so an export always
// reflects exactly what a concurrent worker would load — no separate
// marshal path to drift out of sync with persistence.go's envelope shape.
func runExport(cmd *cobra.Command, args []string) error {
	path := pathFor(cfg)
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no state to export at %s (has the worker ever run?)", path)
		}
		return fmt.Errorf("open state file: %w", err)
	}
	defer src.Close()

	dst := io.Writer(os.Stdout)
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		dst = f
	}

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy state: %w", err)
	}
	if exportOut != "" {
		fmt.Fprintf(os.Stderr, "loomspine: exported state to %s\n", exportOut)
	}
	return nil
}
