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

// Package state owns the single authoritative per-worker state container:
// context elements (panels), messages, module extension data, and the
// counters that allocate ids/uids. This resolves the spec's open question
// about two overlapping state locations in favor of one authoritative
// struct tree — module extension data is attached here, never duplicated
// into a parallel module-owned struct.
package state

import (
	"encoding/json"
	"fmt"
	"sync"
)

// State is the per-worker root. A single *State is owned by the main loop;
// background workers never mutate it directly, only send messages the main
// loop applies.
type State struct {
	mu sync.RWMutex

	Elements      []*ContextElement
	Messages      []*Message
	Notifications []Notification

	ext map[string]any // module_id -> opaque module state

	nextUID   int
	nextIDs   map[string]int // per-kind "next id" counters, kind = id prefix

	// Transient UI-adjacent fields: out of core scope but preserved across
	// saves per the spec.
	SelectedPanelID string `json:"selected_panel_id,omitempty"`
	InputBuffer     string `json:"input_buffer,omitempty"`

	// spineConfig is the spine's per-worker config, stored as opaque JSON so
	// this package never imports pkg/spine (avoiding an import cycle); the
	// spine marshals/unmarshals its own Config through SpineConfig/
	// SetSpineConfig.
	spineConfig json.RawMessage
}

// SpineConfig returns the raw persisted spine config, or nil if none was
// ever set.
func (s *State) SpineConfig() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spineConfig
}

// SetSpineConfig installs the spine's config, serialized by the caller.
func (s *State) SetSpineConfig(data json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spineConfig = data
}

// New creates an empty state.
func New() *State {
	return &State{
		ext:     make(map[string]any),
		nextIDs: make(map[string]int),
	}
}

// NextUID returns the next globally monotonic uid for the given kind, e.g.
// NextUID("file") -> "UID_7_file". UIDs are never reused even after the
// element they tagged is removed.
func (s *State) NextUID(kind string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUID++
	return fmt.Sprintf("UID_%d_%s", s.nextUID, kind)
}

// Ext retrieves a module's typed extension state. The zero value and false
// are returned if the module never called SetExt.
func Ext[T any](s *State, moduleID string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var zero T
	v, ok := s.ext[moduleID]
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// SetExt installs a module's typed extension state, created by the module's
// InitState and destroyed by ResetState or process exit.
func SetExt[T any](s *State, moduleID string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ext[moduleID] = value
}

// ExtKeys returns the module ids that currently have extension state.
func (s *State) ExtKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.ext))
	for k := range s.ext {
		keys = append(keys, k)
	}
	return keys
}

// Lock/Unlock/RLock/RUnlock expose the state mutex directly to the main loop
// so multi-field invariants (e.g. "append a panel and its uid together") can
// be enforced atomically without every helper re-deriving its own locking.
func (s *State) Lock()    { s.mu.Lock() }
func (s *State) Unlock()  { s.mu.Unlock() }
func (s *State) RLock()   { s.mu.RLock() }
func (s *State) RUnlock() { s.mu.RUnlock() }

// FindPanel returns the panel with the given id, or nil.
func (s *State) FindPanel(id string) *ContextElement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findPanelLocked(id)
}

func (s *State) findPanelLocked(id string) *ContextElement {
	for _, e := range s.Elements {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// FindPanelByUID returns the panel with the given uid, or nil.
func (s *State) FindPanelByUID(uid string) *ContextElement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findPanelByUIDLocked(uid)
}

func (s *State) findPanelByUIDLocked(uid string) *ContextElement {
	for _, e := range s.Elements {
		if e.UID == uid {
			return e
		}
	}
	return nil
}

// MutatePanelByUID locks s, looks up the panel with the given uid, and if
// found invokes fn on it before unlocking; it reports whether the panel was
// found. Callers that need to find-then-mutate a panel under a single lock
// acquisition (rather than a separate Lock/FindPanelByUID/Unlock sequence,
// which would deadlock against FindPanelByUID's own locking) should use
// this instead of taking s.Lock directly.
func (s *State) MutatePanelByUID(uid string, fn func(*ContextElement)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findPanelByUIDLocked(uid)
	if e == nil {
		return false
	}
	fn(e)
	return true
}

// PanelsOfType returns every panel whose Type matches contextType.
func (s *State) PanelsOfType(contextType string) []*ContextElement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ContextElement
	for _, e := range s.Elements {
		if e.Type == contextType {
			out = append(out, e)
		}
	}
	return out
}

// TouchPanel marks every panel of contextType deprecated (§4.2 touch_panel).
func (s *State) TouchPanel(contextType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.Elements {
		if e.Type == contextType {
			e.CacheDeprecated = true
		}
	}
}

// TouchPanelByUID marks a single panel deprecated.
func (s *State) TouchPanelByUID(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.findPanelByUIDLocked(uid); e != nil {
		e.CacheDeprecated = true
	}
}

// AddPanel allocates an id in prefix's namespace, assigns a fresh uid of
// kind, appends the panel, and returns it.
func (s *State) AddPanel(prefix, kind, contextType, name string, fixed bool) *ContextElement {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &ContextElement{
		ID:         NextAvailableContextID(s.Elements, prefix),
		Type:       contextType,
		Name:       name,
		Fixed:      fixed,
		Metadata:   make(map[string]string),
		TotalPages: 1,
		CurrentPage: 1,
	}
	s.nextUID++
	e.UID = fmt.Sprintf("UID_%d_%s", s.nextUID, kind)
	s.Elements = append(s.Elements, e)
	return e
}

// RemovePanel deletes a dynamic panel by id; fixed panels cannot be removed.
func (s *State) RemovePanel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.Elements {
		if e.ID == id {
			if e.Fixed {
				return false
			}
			s.Elements = append(s.Elements[:i], s.Elements[i+1:]...)
			return true
		}
	}
	return false
}

// AppendMessage assigns it a uid and appends it.
func (s *State) AppendMessage(m *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUID++
	m.UID = fmt.Sprintf("UID_%d_msg", s.nextUID)
	s.Messages = append(s.Messages, m)
}

// AppendNotification allocates an "N<n>" id and appends it.
func (s *State) AppendNotification(n Notification) Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextIDs["N"]++
	n.ID = fmt.Sprintf("N%d", s.nextIDs["N"])
	s.Notifications = append(s.Notifications, n)
	return n
}

// UnprocessedNotifications returns notifications with Processed == false, in
// FIFO order.
func (s *State) UnprocessedNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Notification
	for _, n := range s.Notifications {
		if !n.Processed {
			out = append(out, n)
		}
	}
	return out
}

// MarkProcessed marks every notification with the given id processed.
func (s *State) MarkProcessed(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Notifications {
		if s.Notifications[i].ID == id {
			s.Notifications[i].Processed = true
		}
	}
}

// NextMessageID returns the next "<prefix><n>" id for a role, e.g. "U1",
// "A2", "T3".
func (s *State) NextMessageID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextIDs[prefix]++
	return fmt.Sprintf("%s%d", prefix, s.nextIDs[prefix])
}

// RecomputeNextIDs rebuilds the per-prefix "next id" counters from the
// messages and notifications already loaded into s, so that a freshly
// loaded state never reissues an id already present on disk. Load calls
// this once after populating Messages/Notifications, since nextIDs itself
// is never persisted (it is trivially derived from their ids).
func (s *State) RecomputeNextIDs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.Messages {
		bumpNextID(s.nextIDs, m.ID)
	}
	for _, n := range s.Notifications {
		bumpNextID(s.nextIDs, n.ID)
	}
}

// bumpNextID parses id as "<prefix><n>" (prefix = leading non-digit runes)
// and raises nextIDs[prefix] to n if n is larger than what's there.
func bumpNextID(nextIDs map[string]int, id string) {
	i := 0
	for i < len(id) && (id[i] < '0' || id[i] > '9') {
		i++
	}
	if i == 0 || i == len(id) {
		return
	}
	prefix := id[:i]
	var n int
	if _, err := fmt.Sscanf(id[i:], "%d", &n); err != nil {
		return
	}
	if n > nextIDs[prefix] {
		nextIDs[prefix] = n
	}
}
