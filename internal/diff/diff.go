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
// Package diff renders unified diffs between file contents, used by the
// files module to describe the effect of an edit in a tool result.
package diff

import (
	"fmt"
	"strings"

	dmp "github.com/sergi/go-diff/diffmatchpatch"
)

// DiffLine represents a line in a diff.
type DiffLine struct {
	Type    DiffType
	Content string
}

// DiffType represents the type of diff line.
type DiffType int

const (
	DiffEqual DiffType = iota
	DiffInsert
	DiffDelete
)

// Lines returns a line-by-line diff between a and b.
func Lines(a, b string) []DiffLine {
	d := dmp.New()
	aChars, bChars, lines := d.DiffLinesToChars(a, b)
	diffs := d.DiffMain(aChars, bChars, false)
	diffs = d.DiffCharsToLines(diffs, lines)

	var out []DiffLine
	for _, part := range diffs {
		for _, line := range strings.SplitAfter(part.Text, "\n") {
			if line == "" {
				continue
			}
			switch part.Type {
			case dmp.DiffInsert:
				out = append(out, DiffLine{Type: DiffInsert, Content: line})
			case dmp.DiffDelete:
				out = append(out, DiffLine{Type: DiffDelete, Content: line})
			default:
				out = append(out, DiffLine{Type: DiffEqual, Content: line})
			}
		}
	}
	return out
}

// Unified renders a unified-diff-style summary of the change between a and b
// (no hunk headers/line numbers — a compact form suitable for a tool result
// string rather than a patch file).
func Unified(a, b string) string {
	if a == b {
		return ""
	}
	var sb strings.Builder
	for _, l := range Lines(a, b) {
		switch l.Type {
		case DiffInsert:
			sb.WriteString("+ " + l.Content)
		case DiffDelete:
			sb.WriteString("- " + l.Content)
		default:
			sb.WriteString("  " + l.Content)
		}
	}
	return sb.String()
}

// Summary returns a one-line "+N -M" change summary for filename.
func Summary(old, new, filename string) string {
	added, removed := 0, 0
	for _, l := range Lines(old, new) {
		switch l.Type {
		case DiffInsert:
			added++
		case DiffDelete:
			removed++
		}
	}
	return fmt.Sprintf("%s: +%d -%d", filename, added, removed)
}
