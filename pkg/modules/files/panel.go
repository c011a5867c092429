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
	"charm.land/lipgloss/v2"

	"github.com/bigmoostache/loomspine/pkg/state"
)

// Panel renders every open "file" context element. Unlike the fixed
// single-instance panels (todo, memory), many dynamic file panels can share
// this context_type at once, so Panel's methods walk state for every
// element of ContextType rather than holding a single bound id - matching
// §4.2's note that the real per-id rendering surface belongs to the
// terminal UI collaborator, out of scope here.
type Panel struct{}

var _ state.Panel = Panel{}

func (Panel) HandleKey(key string, s *state.State) (state.Action, bool) {
	return nil, false
}

func (Panel) Title(s *state.State) string {
	return "Files"
}

func (Panel) Context(s *state.State) []state.ContextItem {
	elems := s.PanelsOfType(ContextType)
	if len(elems) == 0 {
		return nil
	}
	out := make([]state.ContextItem, 0, len(elems))
	for _, e := range elems {
		body := "(loading)"
		if e.CachedContent != nil {
			body = state.PaginateContent(*e.CachedContent, currentPage(e), e.TotalPages)
		}
		out = append(out, state.ContextItem{Label: e.Metadata["file_path"], Content: body})
	}
	return out
}

func (p Panel) Content(s *state.State, base lipgloss.Style) []state.StyledLine {
	elems := s.PanelsOfType(ContextType)
	if len(elems) == 0 {
		return []state.StyledLine{{Style: base, Text: "(no files open)"}}
	}
	lines := make([]state.StyledLine, 0, len(elems))
	for _, e := range elems {
		status := "ready"
		if e.CacheDeprecated {
			status = "stale"
		}
		if e.CachedContent == nil {
			status = "loading"
		}
		lines = append(lines, state.StyledLine{
			Style: base,
			Text:  "[" + e.ID + "] " + e.Metadata["file_path"] + " (" + status + ")",
		})
	}
	return lines
}

func currentPage(e *state.ContextElement) int {
	if e.CurrentPage < 1 {
		return 1
	}
	return e.CurrentPage
}
