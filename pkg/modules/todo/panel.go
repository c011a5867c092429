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
package todo

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/bigmoostache/loomspine/pkg/state"
)

// ContextType is the fixed panel's context_type, and its module id.
const ContextType = "todo"

// Panel renders the checklist and exposes it as LLM-visible context.
type Panel struct{}

var _ state.Panel = Panel{}

func (Panel) HandleKey(key string, s *state.State) (state.Action, bool) {
	return nil, false
}

func (Panel) Title(s *state.State) string {
	st, ok := state.Ext[*State](s, ContextType)
	if !ok {
		return "Todo (0)"
	}
	return "Todo (" + strconv.Itoa(st.IncompleteCount()) + " open)"
}

func (Panel) Context(s *state.State) []state.ContextItem {
	st, ok := state.Ext[*State](s, ContextType)
	if !ok || len(st.Items) == 0 {
		return []state.ContextItem{{Label: "todo", Content: "(no todos)"}}
	}
	var b strings.Builder
	for _, it := range st.Items {
		b.WriteString("[" + it.ID + "] " + it.Status.Icon() + " — " + it.Name)
		if it.Description != "" {
			b.WriteString(": " + it.Description)
		}
		b.WriteString("\n")
	}
	return []state.ContextItem{{Label: "todo", Content: strings.TrimRight(b.String(), "\n")}}
}

func (p Panel) Content(s *state.State, base lipgloss.Style) []state.StyledLine {
	st, ok := state.Ext[*State](s, ContextType)
	if !ok || len(st.Items) == 0 {
		return []state.StyledLine{{Style: base, Text: "(no todos)"}}
	}
	lines := make([]state.StyledLine, 0, len(st.Items))
	for _, it := range st.Items {
		style := base
		if it.Status == Done {
			style = style.Strikethrough(true)
		}
		lines = append(lines, state.StyledLine{
			Style: style,
			Text:  "[" + it.ID + "] " + it.Status.Icon() + " " + it.Name,
		})
	}
	return lines
}
