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
	"fmt"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/bigmoostache/loomspine/internal/log"
)

// BlockingResult is what a blocking callback contributes to the triggering
// tool's result: §4.8 step 4's augment-on-success / replace-on-failure
// rule, applied by the caller (tool dispatcher) to its ToolResult.
type BlockingResult struct {
	Augment string // appended to the tool result's content on success
	Replace string // replaces the tool result's content on failure
	IsError bool
}

// AsyncOutcome is how a non-blocking callback's result reaches the spine:
// a notification body, surfaced once the script finishes.
type AsyncOutcome struct {
	Definition Definition
	Message    string
}

// Engine runs callback definitions against batches of changed files.
// Root is the default cwd (project root) used when a definition doesn't
// set its own.
type Engine struct {
	Root     string
	Registry *Registry

	mu      sync.Mutex
	running map[string]bool // callback id -> invocation in flight

	Async chan AsyncOutcome
}

// NewEngine creates an engine rooted at root, reading definitions from
// registry, and buffering up to 64 non-blocking outcomes on Async; an
// outcome that arrives while the buffer is full is dropped with a warning.
func NewEngine(root string, registry *Registry) *Engine {
	return &Engine{
		Root:     root,
		Registry: registry,
		running:  make(map[string]bool),
		Async:    make(chan AsyncOutcome, 64),
	}
}

// Dispatch implements §4.8 steps 1-4 for one batch of changed file paths
// (typically one path, or several from a batched tool call). It returns
// the BlockingResult for every definition whose pattern matched and whose
// blocking flag is set, in definition order; non-blocking matches run in
// background goroutines and report through Async.
func (e *Engine) Dispatch(defs []Definition, changedPaths []string) []BlockingResult {
	grouped := e.matchAndGroup(defs, changedPaths)

	var blocking []BlockingResult
	for _, m := range grouped {
		if m.def.OneAtATime && e.alreadyRunning(m.def.ID) {
			log.Debug("callback: dropped overlapping invocation", zap.String("id", m.def.ID))
			continue
		}

		if m.def.Blocking {
			blocking = append(blocking, e.runBlocking(m.def, m.files))
		} else {
			e.runAsync(m.def, m.files)
		}
	}
	return blocking
}

type matched struct {
	def   Definition
	files []string
}

// matchAndGroup applies each definition's glob pattern to every changed
// path, then groups matches per §4.8 step 1: once_per_batch definitions
// get one invocation covering every matched path; others get one
// invocation per matched file.
func (e *Engine) matchAndGroup(defs []Definition, changedPaths []string) []matched {
	var out []matched
	for _, def := range defs {
		var hits []string
		for _, p := range changedPaths {
			ok, err := doublestar.Match(def.Pattern, p)
			if err != nil || !ok {
				continue
			}
			hits = append(hits, p)
		}
		if len(hits) == 0 {
			continue
		}
		if def.OncePerBatch {
			out = append(out, matched{def: def, files: hits})
			continue
		}
		for _, f := range hits {
			out = append(out, matched{def: def, files: []string{f}})
		}
	}
	return out
}

func (e *Engine) alreadyRunning(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running[id]
}

func (e *Engine) markRunning(id string, v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v {
		e.running[id] = true
	} else {
		delete(e.running, id)
	}
}

func (e *Engine) runBlocking(def Definition, files []string) BlockingResult {
	e.markRunning(def.ID, true)
	defer e.markRunning(def.ID, false)

	def = e.withDefaultCwd(def)
	outcome := run(def, def.Name, buildEnv(def, files))

	if outcome.TimedOut {
		return BlockingResult{
			IsError: true,
			Replace: fmt.Sprintf("callback %q timed out after %s: %s", def.Name, timeoutDesc(def), outcome.Output),
		}
	}
	if outcome.Succeeded() {
		msg := def.SuccessMessage
		if msg == "" {
			msg = fmt.Sprintf("callback %q passed", def.Name)
		}
		return BlockingResult{Augment: msg}
	}
	return BlockingResult{IsError: true, Replace: outcome.Output}
}

func (e *Engine) runAsync(def Definition, files []string) {
	e.markRunning(def.ID, true)
	def = e.withDefaultCwd(def)

	go func() {
		defer e.markRunning(def.ID, false)
		outcome := run(def, def.Name, buildEnv(def, files))

		var msg string
		switch {
		case outcome.TimedOut:
			msg = fmt.Sprintf("callback %q (%s) timed out", def.Name, def.ID)
		case outcome.Succeeded():
			msg = fmt.Sprintf("callback %q (%s) succeeded", def.Name, def.ID)
		default:
			msg = fmt.Sprintf("callback %q (%s) failed: %s", def.Name, def.ID, outcome.Output)
		}

		select {
		case e.Async <- AsyncOutcome{Definition: def, Message: msg}:
		default:
			log.Warn("callback: async outcome channel full, dropping result", zap.String("id", def.ID))
		}
	}()
}

func (e *Engine) withDefaultCwd(def Definition) Definition {
	if def.Cwd == "" {
		def.Cwd = e.Root
	}
	return def
}

func timeoutDesc(def Definition) string {
	if def.TimeoutSecs == nil {
		return defaultShellTimeout.String()
	}
	return fmt.Sprintf("%ds", *def.TimeoutSecs)
}
