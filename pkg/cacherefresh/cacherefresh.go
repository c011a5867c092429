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

// Package cacherefresh runs deprecated-panel refreshes off the main loop: a
// small worker pool pulls CacheRequest values, calls the context_type's
// registered Refresher, and reports back a CacheUpdate the main loop applies
// to state. At most one refresh is ever in flight per uid.
package cacherefresh

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bigmoostache/loomspine/internal/log"
	"github.com/bigmoostache/loomspine/pkg/state"
)

// CacheRequest asks a Refresher to recompute one panel's cached content.
type CacheRequest struct {
	UID         string
	ContextType string
	Metadata    map[string]string
	SourceHash  uint64
}

// RefreshResult is what a Refresher produces for one CacheRequest.
type RefreshResult struct {
	Unchanged  bool // SourceHash matched; CachedContent untouched
	Content    string
	SourceHash uint64
}

// Refresher recomputes a panel's content for one context_type. Implementations
// read files, shell out to git, call a search API, etc; they must be
// idempotent and side-effect-free on state (state is mutated only by the
// pipeline's Apply, back on the main loop).
type Refresher interface {
	Refresh(ctx context.Context, req CacheRequest) (RefreshResult, error)
}

// RefresherFunc adapts a function to a Refresher.
type RefresherFunc func(ctx context.Context, req CacheRequest) (RefreshResult, error)

func (f RefresherFunc) Refresh(ctx context.Context, req CacheRequest) (RefreshResult, error) {
	return f(ctx, req)
}

// CacheUpdate is the pipeline's report back to the main loop for one uid.
type CacheUpdate struct {
	UID            string
	Unchanged      bool
	Content        string
	TokenCount     int
	FullTokenCount int
	SourceHash     uint64
	Err            error
}

// Pipeline owns a fixed worker pool and the in-flight dedup set. Workers
// never touch State directly: they send CacheUpdate values on Updates,
// which the main loop drains and applies via Apply.
type Pipeline struct {
	mu         sync.Mutex
	refreshers map[string]Refresher // context_type -> Refresher
	inFlight   map[string]bool      // uid -> true while a refresh is running/queued

	requests chan CacheRequest
	Updates  chan CacheUpdate

	workers int
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// New creates a pipeline with workers background goroutines. Call Start to
// launch them and Stop to drain and shut down.
func New(workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		refreshers: make(map[string]Refresher),
		inFlight:   make(map[string]bool),
		requests:   make(chan CacheRequest, 256),
		Updates:    make(chan CacheUpdate, 256),
		workers:    workers,
	}
}

// Register binds a Refresher to a context_type. Call before Start.
func (p *Pipeline) Register(contextType string, r Refresher) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshers[contextType] = r
}

// Start launches the worker pool.
func (p *Pipeline) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx)
	}
}

// Stop cancels the worker pool and waits for in-flight refreshes to return.
func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pipeline) runWorker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-p.requests:
			if !ok {
				return
			}
			p.execute(ctx, req)
		}
	}
}

func (p *Pipeline) execute(ctx context.Context, req CacheRequest) {
	p.mu.Lock()
	r, ok := p.refreshers[req.ContextType]
	p.mu.Unlock()
	if !ok {
		// No refresher registered for this type: report it Unchanged, so
		// Apply clears the in-flight mark and the deprecation and the panel
		// keeps whatever content it had. Logged at debug for diagnosability.
		log.Debug("cacherefresh: no refresher registered", zap.String("context_type", req.ContextType))
		p.Updates <- CacheUpdate{UID: req.UID, Unchanged: true}
		return
	}

	result, err := r.Refresh(ctx, req)
	if err != nil {
		p.Updates <- CacheUpdate{UID: req.UID, Err: err}
		return
	}
	update := CacheUpdate{
		UID:        req.UID,
		Unchanged:  result.Unchanged,
		Content:    result.Content,
		SourceHash: result.SourceHash,
	}
	if !result.Unchanged {
		update.TokenCount = state.EstimateTokens(result.Content)
		if n, ok := state.BPETokenCount(result.Content); ok {
			update.FullTokenCount = n
		} else {
			update.FullTokenCount = update.TokenCount
		}
	}
	p.Updates <- update
}

// Scan walks s's panels and enqueues a CacheRequest for each one that is
// deprecated and not already in flight, marking it in flight as it does so.
// This is step 1 of §4.3: called from the main loop, never from a worker.
func (p *Pipeline) Scan(s *state.State) {
	s.RLock()
	var toEnqueue []CacheRequest
	for _, e := range s.Elements {
		if !e.CacheDeprecated || e.CacheInFlight {
			continue
		}
		p.mu.Lock()
		already := p.inFlight[e.UID]
		p.mu.Unlock()
		if already {
			continue
		}
		toEnqueue = append(toEnqueue, CacheRequest{
			UID:         e.UID,
			ContextType: e.Type,
			Metadata:    e.Metadata,
			SourceHash:  e.SourceHash,
		})
	}
	s.RUnlock()

	for _, req := range toEnqueue {
		p.mu.Lock()
		p.inFlight[req.UID] = true
		p.mu.Unlock()

		s.MutatePanelByUID(req.UID, func(e *state.ContextElement) {
			e.CacheInFlight = true
		})

		select {
		case p.requests <- req:
		default:
			// Saturated queue: back off this uid for the next Scan rather
			// than blocking the main loop.
			p.mu.Lock()
			delete(p.inFlight, req.UID)
			p.mu.Unlock()
			s.MutatePanelByUID(req.UID, func(e *state.ContextElement) {
				e.CacheInFlight = false
			})
		}
	}
}

// Apply is step 3 of §4.3: drain one CacheUpdate and fold it into state. It
// clears CacheInFlight unconditionally; on Unchanged it leaves CachedContent
// and clears CacheDeprecated; on a real update it replaces content,
// recomputes pagination, and stamps LastRefreshMs. Requests whose uid has
// vanished (the panel was removed mid-flight) are discarded.
func (p *Pipeline) Apply(s *state.State, u CacheUpdate) {
	p.mu.Lock()
	delete(p.inFlight, u.UID)
	p.mu.Unlock()

	s.MutatePanelByUID(u.UID, func(e *state.ContextElement) {
		e.CacheInFlight = false

		if u.Err != nil {
			log.Error("cacherefresh: refresh failed", zap.String("uid", u.UID), zap.Error(u.Err))
			// Leave CacheDeprecated set so the next Scan retries.
			return
		}

		if u.Unchanged {
			e.CacheDeprecated = false
			return
		}

		content := u.Content
		e.CachedContent = &content
		e.TokenCount = u.TokenCount
		e.FullTokenCount = u.FullTokenCount
		e.SourceHash = u.SourceHash
		e.ContentHash = state.ContentHash(content)
		e.RecomputeTotalPages()
		e.CacheDeprecated = false
		e.LastRefreshMs = time.Now().UnixMilli()
	})
}

// Drain applies every CacheUpdate currently buffered on Updates without
// blocking, for a main loop that wants to batch-apply between ticks.
func (p *Pipeline) Drain(s *state.State) int {
	n := 0
	for {
		select {
		case u := <-p.Updates:
			p.Apply(s, u)
			n++
		default:
			return n
		}
	}
}
