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
	"strings"

	"github.com/MakeNowJust/heredoc"

	"github.com/bigmoostache/loomspine/pkg/module"
	"github.com/bigmoostache/loomspine/pkg/state"
)

// systemPromptTemplate is the static preamble every turn's system prompt is
// built from; the panel-derived context block is appended after it.
var systemPromptTemplate = heredoc.Doc(`
	You are an autonomous coding agent working in a single project directory.
	Your visible context is a set of panels: each tool category below
	populates or reads one. Panels marked "(stale)" are being refreshed and
	will repopulate on your next turn — don't assume their content is current.

	Work in small, verifiable steps. Prefer the structured tools (file_*,
	git_run) over asking the user to run commands for you.
`)

// buildSystemPrompt renders the static preamble followed by one block per
// panel type currently present in s, each populated by calling the owning
// module's Panel.Context.
func buildSystemPrompt(registry *module.Registry, s *state.State) string {
	var b strings.Builder
	b.WriteString(systemPromptTemplate)

	for _, contextType := range presentContextTypes(s) {
		panel, ok := registry.CreatePanel(contextType)
		if !ok {
			continue
		}
		items := panel.Context(s)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n", panel.Title(s))
		for _, item := range items {
			if item.Label != "" {
				fmt.Fprintf(&b, "\n### %s\n", item.Label)
			}
			b.WriteString(item.Content)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// presentContextTypes returns the distinct context_types among s's current
// panels, in first-seen order, so the prompt's panel blocks don't repeat a
// module's section once per dynamic instance.
func presentContextTypes(s *state.State) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range s.Elements {
		if seen[e.Type] {
			continue
		}
		seen[e.Type] = true
		out = append(out, e.Type)
	}
	return out
}
