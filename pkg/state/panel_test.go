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
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextAvailableContextID_ReusesLowestFreeSlot(t *testing.T) {
	elements := []*ContextElement{{ID: "P1"}, {ID: "P3"}}
	assert.Equal(t, "P2", NextAvailableContextID(elements, "P"))
}

func TestNextAvailableContextID_EmptyStartsAtOne(t *testing.T) {
	assert.Equal(t, "P1", NextAvailableContextID(nil, "P"))
}

func TestRecomputeTotalPages_FloorsAtOne(t *testing.T) {
	e := &ContextElement{TokenCount: 0, CurrentPage: 1}
	e.RecomputeTotalPages()
	assert.Equal(t, 1, e.TotalPages)
}

func TestRecomputeTotalPages_ClampsCurrentPage(t *testing.T) {
	e := &ContextElement{TokenCount: TokensPerPage*3 + 1, CurrentPage: 99}
	e.RecomputeTotalPages()
	require.Equal(t, 4, e.TotalPages)
	assert.Equal(t, 4, e.CurrentPage)
}

func TestPaginateContent_SinglePageHasNoFooter(t *testing.T) {
	body := "short content"
	out := PaginateContent(body, 1, 1)
	assert.Equal(t, body, out)
}

func TestPaginateContent_MultiPageHasFooter(t *testing.T) {
	body := strings.Repeat("a", TokensPerPage*CharsPerToken*2)
	out := PaginateContent(body, 1, 2)
	assert.Contains(t, out, "page 1/2")
}

func TestPaginateContent_NeverSplitsGraphemeCluster(t *testing.T) {
	// A multi-rune cluster straddling the byte-budget boundary must survive
	// intact rather than being cut mid-cluster, and — since page 1's back-off
	// shortens it below the fixed stride — page 2 must pick up exactly where
	// page 1 actually ended, not lose the cluster in the gap.
	family := "\U0001F468‍\U0001F469‍\U0001F467‍\U0001F466"
	body := strings.Repeat("x", TokensPerPage*CharsPerToken-2) + family
	page1 := PaginateContent(body, 1, 2)
	page2 := PaginateContent(body, 2, 2)
	assert.True(t, utf8.ValidString(page1))
	assert.True(t, utf8.ValidString(page2))

	reconstructed := strings.TrimSuffix(page1, pageFooter(1, 2)) + strings.TrimSuffix(page2, pageFooter(2, 2))
	assert.Equal(t, body, reconstructed)
}

func TestPaginateContent_RoundTripsAcrossManyPageBoundaries(t *testing.T) {
	// §8's round-trip law: paginate_content concatenated over every page,
	// minus the page footers, must reproduce body byte-for-byte. Lines of
	// varying length force the newline back-off to land at different offsets
	// on different pages, which is exactly where a fixed-stride start would
	// silently drop the bytes between a backed-off end and the next page's
	// nominal start.
	var lines []string
	for i := 0; i < 1000; i++ {
		lines = append(lines, fmt.Sprintf("line %03d: %s", i, strings.Repeat("x", i%37)))
	}
	body := strings.Join(lines, "\n") + "\n"

	total := ceilDiv(len(body), TokensPerPage*CharsPerToken)
	require.Greater(t, total, 2, "test body must span more than two pages to exercise the bug")

	var reconstructed strings.Builder
	for page := 1; page <= total; page++ {
		chunk := PaginateContent(body, page, total)
		reconstructed.WriteString(strings.TrimSuffix(chunk, pageFooter(page, total)))
	}
	assert.Equal(t, body, reconstructed.String())
}

func TestMutatePanelByUID_FindsAndMutatesUnderOneLock(t *testing.T) {
	s := New()
	e := s.AddPanel("P", "file", "file", "a.txt", false)

	found := s.MutatePanelByUID(e.UID, func(el *ContextElement) {
		el.CacheDeprecated = true
	})

	require.True(t, found)
	assert.True(t, s.FindPanelByUID(e.UID).CacheDeprecated)
}

func TestMutatePanelByUID_MissingUIDReturnsFalse(t *testing.T) {
	s := New()
	assert.False(t, s.MutatePanelByUID("UID_404_file", func(*ContextElement) {}))
}
