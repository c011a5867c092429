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
package cacherefresh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigmoostache/loomspine/pkg/state"
)

func TestPipeline_ScanSkipsNonDeprecatedAndInFlight(t *testing.T) {
	p := New(1)
	p.Register("file", RefresherFunc(func(ctx context.Context, req CacheRequest) (RefreshResult, error) {
		return RefreshResult{Content: "hi"}, nil
	}))
	p.Start(context.Background())
	defer p.Stop()

	s := state.New()
	fresh := s.AddPanel("P", "file", "file", "fresh", false)
	fresh.CacheDeprecated = false

	inFlight := s.AddPanel("P", "file", "file", "inflight", false)
	inFlight.CacheDeprecated = true
	inFlight.CacheInFlight = true

	dueForRefresh := s.AddPanel("P", "file", "file", "due", false)
	dueForRefresh.CacheDeprecated = true

	p.Scan(s)

	u := <-p.Updates
	assert.Equal(t, dueForRefresh.UID, u.UID)

	select {
	case extra := <-p.Updates:
		t.Fatalf("expected only one update, got extra: %+v", extra)
	default:
	}
}

func TestPipeline_ApplyUpdatedSetsContentAndClearsDeprecated(t *testing.T) {
	p := New(1)
	s := state.New()
	e := s.AddPanel("P", "file", "file", "f", false)
	e.CacheDeprecated = true
	e.CacheInFlight = true

	p.Apply(s, CacheUpdate{UID: e.UID, Content: "hello world", TokenCount: 3, SourceHash: 42})

	got := s.FindPanelByUID(e.UID)
	require.NotNil(t, got.CachedContent)
	assert.Equal(t, "hello world", *got.CachedContent)
	assert.False(t, got.CacheDeprecated)
	assert.False(t, got.CacheInFlight)
	assert.Equal(t, uint64(42), got.SourceHash)
	assert.NotZero(t, got.LastRefreshMs)
}

func TestPipeline_ApplyUnchangedLeavesContentAndClearsDeprecated(t *testing.T) {
	p := New(1)
	s := state.New()
	e := s.AddPanel("P", "file", "file", "f", false)
	original := "original"
	e.CachedContent = &original
	e.CacheDeprecated = true
	e.CacheInFlight = true

	p.Apply(s, CacheUpdate{UID: e.UID, Unchanged: true})

	got := s.FindPanelByUID(e.UID)
	assert.Equal(t, "original", *got.CachedContent)
	assert.False(t, got.CacheDeprecated)
	assert.False(t, got.CacheInFlight)
}

func TestPipeline_ApplyErrorLeavesDeprecatedForRetry(t *testing.T) {
	p := New(1)
	s := state.New()
	e := s.AddPanel("P", "file", "file", "f", false)
	e.CacheDeprecated = true
	e.CacheInFlight = true

	p.Apply(s, CacheUpdate{UID: e.UID, Err: assertError{}})

	got := s.FindPanelByUID(e.UID)
	assert.True(t, got.CacheDeprecated)
	assert.False(t, got.CacheInFlight)
}

func TestPipeline_ApplyDiscardsVanishedPanel(t *testing.T) {
	p := New(1)
	s := state.New()
	// No panel with this uid exists; Apply must not panic.
	p.Apply(s, CacheUpdate{UID: "UID_999_file", Content: "x"})
}

func TestPipeline_DrainAppliesAllBufferedUpdates(t *testing.T) {
	p := New(1)
	s := state.New()
	e1 := s.AddPanel("P", "file", "file", "f1", false)
	e2 := s.AddPanel("P", "file", "file", "f2", false)
	e1.CacheDeprecated = true
	e2.CacheDeprecated = true

	p.Updates <- CacheUpdate{UID: e1.UID, Content: "a"}
	p.Updates <- CacheUpdate{UID: e2.UID, Content: "b"}

	n := p.Drain(s)
	assert.Equal(t, 2, n)
	assert.False(t, s.FindPanelByUID(e1.UID).CacheDeprecated)
	assert.False(t, s.FindPanelByUID(e2.UID).CacheDeprecated)
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
