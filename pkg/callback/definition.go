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

// Package callback implements the callback engine (§4.8): user-defined
// shell scripts that fire on matching file edits, optionally blocking the
// triggering tool's result.
package callback

import "fmt"

// Definition is a callback rule, field-for-field identical to
// crates/cp-mod-callback/src/types.rs's CallbackDefinition — load-bearing
// for JSON persistence round-tripping.
type Definition struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Pattern        string `json:"pattern"`
	Blocking       bool   `json:"blocking"`
	TimeoutSecs    *int   `json:"timeout_secs,omitempty"`
	SuccessMessage string `json:"success_message,omitempty"`
	Cwd            string `json:"cwd,omitempty"`
	OneAtATime     bool   `json:"one_at_a_time"`
	OncePerBatch   bool   `json:"once_per_batch"`
}

// Registry holds the global set of callback definitions and the id
// generator for "CB<n>" ids, mirroring CallbackState's definitions/next_id
// fields (its per-worker active_set/editor_open fields belong to a UI
// layer out of this core's scope).
type Registry struct {
	Definitions []Definition `json:"definitions"`
	NextID      int          `json:"next_id"`
}

// NewRegistry creates an empty registry with the id counter primed to 1.
func NewRegistry() *Registry {
	return &Registry{NextID: 1}
}

// Add appends def with a freshly generated id and returns the assigned id,
// or an error if def fails Validate.
func (r *Registry) Add(def Definition) (string, error) {
	if err := def.Validate(); err != nil {
		return "", err
	}
	def.ID = fmt.Sprintf("CB%d", r.NextID)
	r.NextID++
	r.Definitions = append(r.Definitions, def)
	return def.ID, nil
}

// Remove deletes the definition with the given id, reporting whether one
// was found.
func (r *Registry) Remove(id string) bool {
	for i, d := range r.Definitions {
		if d.ID == id {
			r.Definitions = append(r.Definitions[:i], r.Definitions[i+1:]...)
			return true
		}
	}
	return false
}

// Validate enforces §4.8's "timeout_secs required when blocking=true".
func (d Definition) Validate() error {
	if d.Blocking && d.TimeoutSecs == nil {
		return fmt.Errorf("callback %q: timeout_secs is required when blocking=true", d.Name)
	}
	if d.Pattern == "" {
		return fmt.Errorf("callback %q: pattern must not be empty", d.Name)
	}
	return nil
}

// Find returns the definition with the given id, if any.
func (r *Registry) Find(id string) (Definition, bool) {
	for _, d := range r.Definitions {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}
