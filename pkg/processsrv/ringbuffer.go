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

// Package processsrv implements the local process server (§4.7): a single
// owner process that spawns and supervises child processes so they survive
// terminal reloads, speaking newline-delimited JSON over a local socket.
package processsrv

import "sync"

// RingBuffer is a fixed-capacity byte buffer that discards the oldest bytes
// on overflow, grounded in the teacher's log-tailing idiom
// (pkg/shuttle executor output buffering) and
// original_source/crates/cp-mod-console/src/ring_buffer.rs's contract
// ("supports append + snapshot").
type RingBuffer struct {
	mu       sync.Mutex
	buf      []byte
	capacity int
}

// NewRingBuffer creates a buffer that never grows past capacity bytes.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{capacity: capacity}
}

// Write appends p, discarding the oldest bytes first if the result would
// exceed capacity.
func (r *RingBuffer) Write(p []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = append(r.buf, p...)
	if over := len(r.buf) - r.capacity; over > 0 {
		r.buf = r.buf[over:]
	}
}

// Snapshot returns a copy of the buffer's current contents.
func (r *RingBuffer) Snapshot() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, len(r.buf))
	copy(out, r.buf)
	return out
}

// Len reports the current buffered byte count.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}
