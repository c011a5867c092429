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
package memory

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/bigmoostache/loomspine/pkg/state"
)

// ContextType is the fixed panel's context_type, and its module id.
const ContextType = "memory"

// Panel surfaces every memory's one-line summary as LLM-visible context;
// a memory's full contents are fetched on demand via memory_read.
type Panel struct{}

var _ state.Panel = Panel{}

func (Panel) HandleKey(key string, s *state.State) (state.Action, bool) {
	return nil, false
}

func (Panel) Title(s *state.State) string {
	st, ok := state.Ext[*State](s, ContextType)
	if !ok {
		return "Memory (0)"
	}
	return "Memory (" + strconv.Itoa(len(st.Memories)) + ")"
}

func (Panel) Context(s *state.State) []state.ContextItem {
	st, ok := state.Ext[*State](s, ContextType)
	if !ok || len(st.Memories) == 0 {
		return []state.ContextItem{{Label: "memory", Content: "(no memories)"}}
	}
	var b strings.Builder
	for _, it := range st.Memories {
		b.WriteString("[" + it.ID + "] (" + string(it.Importance) + ") " + it.TLDR + "\n")
	}
	return []state.ContextItem{{Label: "memory", Content: strings.TrimRight(b.String(), "\n")}}
}

func (p Panel) Content(s *state.State, base lipgloss.Style) []state.StyledLine {
	st, ok := state.Ext[*State](s, ContextType)
	if !ok || len(st.Memories) == 0 {
		return []state.StyledLine{{Style: base, Text: "(no memories)"}}
	}
	lines := make([]state.StyledLine, 0, len(st.Memories))
	for _, it := range st.Memories {
		lines = append(lines, state.StyledLine{
			Style: base,
			Text:  "[" + it.ID + "] (" + string(it.Importance) + ") " + it.TLDR,
		})
	}
	return lines
}
