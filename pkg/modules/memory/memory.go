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

// Package memory implements a persisted scratch memory the model can write
// to and recall across turns, grounded in
// original_source/crates/cp-mod-memory/src/types.rs.
package memory

import (
	"fmt"
	"strings"
)

// Importance is a memory item's priority level.
type Importance string

const (
	Low      Importance = "low"
	Medium   Importance = "medium"
	High     Importance = "high"
	Critical Importance = "critical"
)

// ParseImportance parses a case-insensitive importance string, defaulting to
// Medium like the Rust enum's #[default] variant.
func ParseImportance(s string) Importance {
	switch strings.ToLower(s) {
	case "low":
		return Low
	case "high":
		return High
	case "critical":
		return Critical
	case "medium", "":
		return Medium
	default:
		return Medium
	}
}

// Item is one memory entry: the memory panel lists its TLDR, and Contents is
// returned only by memory_read, matching the original's tl_dr/contents split.
type Item struct {
	ID         string     `json:"id"`
	TLDR       string     `json:"tl_dr"`
	Contents   string     `json:"contents"`
	Importance Importance `json:"importance"`
	Labels     []string   `json:"labels,omitempty"`
}

// State is the module's persisted extension data.
type State struct {
	Memories []*Item  `json:"memories"`
	NextID   int      `json:"next_memory_id"`
	OpenIDs  []string `json:"open_memory_ids,omitempty"`
}

// NewState creates an empty memory store with the id counter primed to 1.
func NewState() *State {
	return &State{NextID: 1}
}

// Add creates a new memory item and returns it.
func (s *State) Add(tldr, contents string, importance Importance, labels []string) *Item {
	it := &Item{
		ID:         fmt.Sprintf("M%d", s.NextID),
		TLDR:       tldr,
		Contents:   contents,
		Importance: importance,
		Labels:     labels,
	}
	s.NextID++
	s.Memories = append(s.Memories, it)
	return it
}

// Find returns the memory with the given id, or nil.
func (s *State) Find(id string) *Item {
	for _, it := range s.Memories {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// Remove deletes the memory with the given id, reporting whether one was
// found.
func (s *State) Remove(id string) bool {
	for i, it := range s.Memories {
		if it.ID == id {
			s.Memories = append(s.Memories[:i], s.Memories[i+1:]...)
			return true
		}
	}
	return false
}
