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

// Package todo implements the todo list module: a flat checklist the LLM
// maintains via tools and that the spine polls for auto-continuation.
package todo

import "fmt"

// Status is a todo item's lifecycle state.
type Status string

const (
	Pending    Status = "pending"
	InProgress Status = "in_progress"
	Done       Status = "done"
)

// Icon returns the single-glyph marker shown in the panel and in watcher
// summaries.
func (s Status) Icon() string {
	switch s {
	case Pending:
		return " "
	case InProgress:
		return "~"
	case Done:
		return "x"
	default:
		return "?"
	}
}

// ParseStatus accepts both the short form and the serialized name, matching
// the tolerant parser tools pass through.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case " ", "pending":
		return Pending, true
	case "~", "in_progress":
		return InProgress, true
	case "x", "X", "done":
		return Done, true
	default:
		return "", false
	}
}

// Item is one checklist entry. ParentID allows a shallow one-level nesting;
// deeper nesting is left to the caller's naming convention.
type Item struct {
	ID          string `json:"id"`
	ParentID    string `json:"parent_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`
}

// State is the module's extension data, installed under state.Ext[*State]("todo").
type State struct {
	Items      []Item `json:"items"`
	NextItemID int    `json:"next_item_id"`
}

// NewState returns an empty todo list with id allocation starting at 1.
func NewState() *State {
	return &State{NextItemID: 1}
}

// HasIncomplete reports whether any item is Pending or InProgress.
func (s *State) HasIncomplete() bool {
	for _, it := range s.Items {
		if it.Status == Pending || it.Status == InProgress {
			return true
		}
	}
	return false
}

// IncompleteSummaryLines renders one "[id] icon — name" line per incomplete
// item, in list order.
func (s *State) IncompleteSummaryLines() []string {
	var lines []string
	for _, it := range s.Items {
		if it.Status == Pending || it.Status == InProgress {
			lines = append(lines, "["+it.ID+"] "+it.Status.Icon()+" — "+it.Name)
		}
	}
	return lines
}

// IncompleteCount returns the number of Pending or InProgress items.
func (s *State) IncompleteCount() int {
	n := 0
	for _, it := range s.Items {
		if it.Status == Pending || it.Status == InProgress {
			n++
		}
	}
	return n
}

// Find returns the item with the given id, or nil.
func (s *State) Find(id string) *Item {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return &s.Items[i]
		}
	}
	return nil
}

// Add appends a new item, allocating its id, and returns it.
func (s *State) Add(name, description, parentID string) Item {
	it := Item{
		ID:          itemID(s.NextItemID),
		ParentID:    parentID,
		Name:        name,
		Description: description,
		Status:      Pending,
	}
	s.NextItemID++
	s.Items = append(s.Items, it)
	return it
}

func itemID(n int) string {
	return fmt.Sprintf("X%d", n)
}
