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
	"charm.land/lipgloss/v2"

	"github.com/bigmoostache/loomspine/pkg/state"
)

// Panel renders every cached "git_result" context element. As with the
// files module, many git_result panels can coexist - one per distinct
// read-only command - so Panel walks state for every element of its
// ContextType rather than holding a single bound id.
type Panel struct{}

var _ state.Panel = Panel{}

func (Panel) HandleKey(key string, s *state.State) (state.Action, bool) {
	return nil, false
}

func (Panel) Title(s *state.State) string {
	return "Git"
}

func (Panel) Context(s *state.State) []state.ContextItem {
	elems := s.PanelsOfType(ContextType)
	if len(elems) == 0 {
		return nil
	}
	out := make([]state.ContextItem, 0, len(elems))
	for _, e := range elems {
		body := "(pending refresh)"
		if e.CachedContent != nil {
			body = state.PaginateContent(*e.CachedContent, currentPage(e), e.TotalPages)
		}
		out = append(out, state.ContextItem{Label: e.Metadata["source_command"], Content: body})
	}
	return out
}

func (p Panel) Content(s *state.State, base lipgloss.Style) []state.StyledLine {
	elems := s.PanelsOfType(ContextType)
	if len(elems) == 0 {
		return []state.StyledLine{{Style: base, Text: "(no git results cached)"}}
	}
	lines := make([]state.StyledLine, 0, len(elems))
	for _, e := range elems {
		status := "ready"
		if e.CacheDeprecated {
			status = "stale"
		}
		if e.CachedContent == nil {
			status = "pending"
		}
		lines = append(lines, state.StyledLine{
			Style: base,
			Text:  "[" + e.ID + "] " + e.Metadata["source_command"] + " (" + status + ")",
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
