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
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	tea "charm.land/bubbletea/v2"
	"github.com/rivo/uniseg"

	"github.com/bigmoostache/loomspine/internal/ordered"
)

// ContextElement is a panel: the atomic unit of display and LLM context.
type ContextElement struct {
	ID      string // public id, e.g. "P3"; lowest free slot, reused on removal
	UID     string // globally monotonic "UID_<n>_<kind>", never reused
	Type    string // context_type selecting the Panel implementation
	Name    string
	Fixed   bool // fixed panels are module-owned, one per type per worker

	CachedContent *string // nil while loading
	Metadata      map[string]string

	TokenCount     int
	FullTokenCount int

	CurrentPage int
	TotalPages  int

	CacheDeprecated bool
	CacheInFlight   bool

	SourceHash  uint64
	ContentHash uint64

	LastRefreshMs int64

	HistoryMessages []Message `json:"history_messages,omitempty"`
}

// ContextItem is one piece of LLM-visible context surfaced by a panel.
type ContextItem struct {
	Label   string
	Content string
}

// StyledLine is one line of terminal-rendered panel content.
type StyledLine struct {
	Style lipgloss.Style
	Text  string
}

// Action is whatever a panel's key handler wants the host loop to do next;
// it is opaque outside the rendering collaborator, matching bubbletea's own
// tea.Msg contract.
type Action = tea.Msg

// Panel is the rendering collaborator's contract with a context element —
// only this contract is in scope; the interactive program itself is not.
type Panel interface {
	HandleKey(key string, s *State) (Action, bool)
	Title(s *State) string
	Context(s *State) []ContextItem
	Content(s *State, base lipgloss.Style) []StyledLine
}

// NextAvailableContextID scans existing panel ids sharing prefix and returns
// the lowest unused integer suffix, e.g. "P3" reused once P3 is removed.
func NextAvailableContextID(elements []*ContextElement, prefix string) string {
	used := make(map[int]bool)
	for _, e := range elements {
		if strings.HasPrefix(e.ID, prefix) {
			var n int
			if _, err := fmt.Sscanf(e.ID[len(prefix):], "%d", &n); err == nil {
				used[n] = true
			}
		}
	}
	for n := 1; ; n++ {
		if !used[n] {
			return fmt.Sprintf("%s%d", prefix, n)
		}
	}
}

// RecomputeTotalPages sets TotalPages = ceil(TokenCount/TokensPerPage), floor 1.
func (e *ContextElement) RecomputeTotalPages() {
	e.TotalPages = ceilDiv(e.TokenCount, TokensPerPage)
	if e.TotalPages < 1 {
		e.TotalPages = 1
	}
	e.CurrentPage = ordered.Clamp(e.CurrentPage, 1, e.TotalPages)
}

// pageFooter is appended to a page's content whenever it isn't the only page.
func pageFooter(page, total int) string {
	return fmt.Sprintf("[page %d/%d — use panel_page to turn pages]", page, total)
}

// PaginateContent slices body into its page'th page of at most
// TokensPerPage*CharsPerToken bytes, never splitting a grapheme cluster, and
// backing off to the preceding newline when the cut lands mid-line. total is
// the caller's precomputed page count (ceil(tokens/TokensPerPage)).
//
// Page boundaries are computed sequentially from byte 0 rather than by a
// fixed stride: page k+1 always starts exactly where page k's (possibly
// backed-off) end landed, so concatenating every page back together
// reproduces body byte-for-byte (§8's round-trip law) even when earlier
// pages were shortened by a newline or grapheme-cluster back-off.
func PaginateContent(body string, page, total int) string {
	start, end := pageBounds(body, page)

	chunk := body[start:end]
	if total > 1 {
		chunk += pageFooter(page, total)
	}
	return chunk
}

// pageBounds walks pages 1..page from the start of body, applying the same
// grapheme/newline back-off every page boundary gets, and returns the
// page'th page's actual [start, end) byte range.
func pageBounds(body string, page int) (start, end int) {
	pageBytes := TokensPerPage * CharsPerToken
	start = 0
	for k := 1; k <= page; k++ {
		end = start + pageBytes
		if end > len(body) {
			end = len(body)
		} else {
			end = backOffToGraphemeBoundary(body, end)
			if nl := strings.LastIndexByte(body[start:end], '\n'); nl >= 0 && start+nl+1 > start {
				end = start + nl + 1
			}
		}
		if k == page {
			break
		}
		start = end
	}
	return start, end
}

// backOffToGraphemeBoundary walks back from idx (a byte offset that may sit
// mid-grapheme-cluster) to the nearest preceding cluster boundary.
func backOffToGraphemeBoundary(s string, idx int) int {
	if idx <= 0 || idx >= len(s) {
		return idx
	}
	// uniseg.FirstGraphemeClusterInString reports each cluster's byte width;
	// walk clusters from the start until the boundary at or before idx.
	pos := 0
	last := 0
	rest := s
	for len(rest) > 0 {
		_, r, width, _ := uniseg.FirstGraphemeClusterInString(rest, -1)
		next := pos + width
		if next > idx {
			return last
		}
		last = next
		pos = next
		rest = r
	}
	return last
}
