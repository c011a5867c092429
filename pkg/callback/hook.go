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
package callback

import (
	"strings"

	"github.com/bigmoostache/loomspine/pkg/module"
)

// AfterFileEdit implements tooldispatch.CallbackHook: it dispatches every
// registered definition against the edited paths and folds the blocking
// results into result per §4.8 step 4. When more than one blocking
// callback matches, successes are joined and failures are joined — any
// single failure marks the result an error.
func (e *Engine) AfterFileEdit(result module.ToolResult, paths []string) module.ToolResult {
	if e.Registry == nil {
		return result
	}

	blocking := e.Dispatch(e.Registry.Definitions, paths)
	if len(blocking) == 0 {
		return result
	}

	var augments, failures []string
	for _, b := range blocking {
		if b.IsError {
			failures = append(failures, b.Replace)
		} else if b.Augment != "" {
			augments = append(augments, b.Augment)
		}
	}

	if len(failures) > 0 {
		result.IsError = true
		result.Content = strings.Join(failures, "\n---\n")
		return result
	}

	if len(augments) > 0 {
		result.Content = result.Content + "\n" + strings.Join(augments, "\n")
	}
	return result
}
