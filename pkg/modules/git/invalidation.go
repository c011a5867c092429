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

import "github.com/bigmoostache/loomspine/pkg/module"

// invalidationRules is a direct port of the original implementation's
// cache_invalidation table: one rule per family of git commands, with a
// trigger regex over the full command line and a list of regexes matched
// against a git_result panel's source_command metadata.
//
// NUCLEAR is listed first and matches every other family's pattern on
// purpose: checkout/merge/rebase/reset/pull touch the working tree and HEAD
// broadly enough that every cached read-only result - log, diff, status,
// branch listings, everything - has to be treated as stale.
var invalidationRules = []module.InvalidationRule{
	{
		Name:               "nuclear",
		TriggerPattern:     `^git\s+(checkout|switch|merge|rebase|reset|pull|filter-branch|filter-repo)\b`,
		PanelMatchPatterns: []string{`^git\s+`},
	},
	{
		Name:           "commit-like",
		TriggerPattern: `^git\s+(commit|cherry-pick|revert|am)\b`,
		PanelMatchPatterns: []string{
			`^git\s+log\b`, `^git\s+diff\b`, `^git\s+show\b`, `^git\s+status\b`,
			`^git\s+blame\b`, `^git\s+shortlog\b`, `^git\s+rev-list\b`, `^git\s+rev-parse\b`,
			`^git\s+ls-tree\b`, `^git\s+for-each-ref\b`, `^git\s+describe\b`, `^git\s+reflog\b`,
			`^git\s+cat-file\b`, `^git\s+format-patch\b`,
		},
	},
	{
		Name:           "staging",
		TriggerPattern: `^git\s+(add|restore|rm|mv|clean|update-index)\b`,
		PanelMatchPatterns: []string{
			`^git\s+diff\b`, `^git\s+status\b`, `^git\s+ls-files\b`, `^git\s+grep\b`, `^git\s+blame\b`,
		},
	},
	{
		Name:           "stash-modify",
		TriggerPattern: `^git\s+stash(\s+(push|pop|apply)|\s*$)`,
		PanelMatchPatterns: []string{
			`^git\s+diff\b`, `^git\s+status\b`, `^git\s+stash\b`, `^git\s+ls-files\b`, `^git\s+grep\b`,
		},
	},
	{
		Name:               "stash-remove",
		TriggerPattern:     `^git\s+stash\s+(drop|clear)\b`,
		PanelMatchPatterns: []string{`^git\s+stash\b`},
	},
	{
		Name:               "push",
		TriggerPattern:     `^git\s+push\b`,
		PanelMatchPatterns: []string{`^git\s+log\b`},
	},
	{
		Name:           "fetch",
		TriggerPattern: `^git\s+fetch\b`,
		PanelMatchPatterns: []string{
			`^git\s+log\b`, `^git\s+branch\b`, `^git\s+tag\b`, `^git\s+for-each-ref\b`,
		},
	},
	{
		Name:           "branch-mgmt",
		TriggerPattern: `^git\s+branch\s+(-d|-D|-m|-M|-c|-C|[^-])`,
		PanelMatchPatterns: []string{
			`^git\s+branch\b`, `^git\s+for-each-ref\b`, `^git\s+reflog\b`,
		},
	},
	{
		Name:           "tag-mgmt",
		TriggerPattern: `^git\s+tag\s+(-d|[^-])`,
		PanelMatchPatterns: []string{
			`^git\s+tag\b`, `^git\s+for-each-ref\b`, `^git\s+describe\b`,
		},
	},
	{
		Name:               "config",
		TriggerPattern:     `^git\s+config\b`,
		PanelMatchPatterns: []string{`^git\s+config\b`},
	},
	{
		Name:               "remote",
		TriggerPattern:     `^git\s+remote\s+(add|remove|rm|rename|set-url|set-head|prune)\b`,
		PanelMatchPatterns: []string{`^git\s+remote\b`},
	},
}
