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
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SchemaVersion is bumped whenever the persisted envelope's shape changes in
// a way older readers can't tolerate.
const SchemaVersion = 1

// ModuleSaver/ModuleLoader let a module opt into persistence without the
// container needing any reflection over its concrete type.
type ModuleSaver func(s *State) (json.RawMessage, error)
type ModuleLoader func(data json.RawMessage, s *State) error

// envelope is the single per-worker JSON document written to disk.
type envelope struct {
	SchemaVersion int                        `json:"schema_version"`
	NextUID       int                        `json:"next_uid"`
	Messages      []*Message                 `json:"messages"`
	Context       []*ContextElement          `json:"context"`
	Modules       map[string]json.RawMessage `json:"modules"`
	Notifications []Notification             `json:"notifications"`
	SpineConfig   json.RawMessage            `json:"spine_config,omitempty"`

	SelectedPanelID string `json:"selected_panel_id,omitempty"`
	InputBuffer     string `json:"input_buffer,omitempty"`
}

// Save atomically serializes s to path: write to a sibling temp file in the
// same directory, fsync, then rename over the target, so a crash mid-write
// never leaves a truncated file at path.
func Save(s *State, path string, savers map[string]ModuleSaver) error {
	s.mu.RLock()
	env := envelope{
		SchemaVersion:   SchemaVersion,
		NextUID:         s.nextUID,
		Messages:        s.Messages,
		Context:         s.Elements,
		Notifications:   s.Notifications,
		SpineConfig:     s.spineConfig,
		SelectedPanelID: s.SelectedPanelID,
		InputBuffer:     s.InputBuffer,
		Modules:         make(map[string]json.RawMessage),
	}
	s.mu.RUnlock()

	for id, save := range savers {
		data, err := save(s)
		if err != nil {
			return fmt.Errorf("save module %s: %w", id, err)
		}
		env.Modules[id] = data
	}

	buf, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads path into a fresh State. A missing file or invalid JSON yields
// an empty state rather than an error, matching the spec's load-tolerance
// rule; no module loader runs in that case. Any other I/O error is returned.
func Load(path string, loaders map[string]ModuleLoader) (*State, error) {
	s := New()

	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(buf, &env); err != nil {
		// Malformed JSON: yield defaults rather than failing the worker.
		return s, nil
	}

	s.nextUID = env.NextUID
	s.Messages = env.Messages
	s.Elements = env.Context
	s.Notifications = env.Notifications
	s.spineConfig = env.SpineConfig
	s.SelectedPanelID = env.SelectedPanelID
	s.InputBuffer = env.InputBuffer
	s.RecomputeNextIDs()

	for id, load := range loaders {
		data, ok := env.Modules[id]
		if !ok {
			continue
		}
		if err := load(data, s); err != nil {
			return nil, fmt.Errorf("load module %s: %w", id, err)
		}
	}

	return s, nil
}
