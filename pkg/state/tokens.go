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
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/pkoukk/tiktoken-go"
)

// CharsPerToken is the conservative byte-to-token ratio used whenever an
// exact tokenizer isn't available. The distilled spec defines
// estimate_tokens purely in these terms; the tiktoken encoder below is an
// enrichment, not a replacement, of that formula.
const CharsPerToken = 4

// TokensPerPage bounds how many estimated tokens worth of rendered content
// a single panel page holds before pagination kicks in.
const TokensPerPage = 2000

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

func encoder() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			enc = e
		}
	})
	return enc
}

// EstimateTokens implements estimate_tokens(s) = ceil(len(s)/CharsPerToken).
// This formula is deterministic by mandate: it must return the same value
// regardless of whether a BPE encoder happens to be loadable in the current
// environment. Callers that want a real BPE count alongside the estimate
// should call BPETokenCount separately and surface it through its own field
// (e.g. ContextElement.FullTokenCount), never by substituting it here.
func EstimateTokens(s string) int {
	return ceilDiv(len(s), CharsPerToken)
}

// BPETokenCount returns the cl100k_base BPE token count for s when the
// encoder is available, and ok=false when it couldn't be loaded (offline,
// corrupt cache). This is an enrichment on top of EstimateTokens, not a
// replacement for it.
func BPETokenCount(s string) (count int, ok bool) {
	e := encoder()
	if e == nil {
		return 0, false
	}
	return len(e.Encode(s, nil, nil)), true
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

// ContentHash returns a stable, non-cryptographic hash of body, used for a
// panel's content_hash.
func ContentHash(body string) uint64 {
	return xxhash.Sum64String(body)
}

// SourceHash hashes an opaque source fingerprint (e.g. "path|mtime|size").
func SourceHash(parts ...string) uint64 {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}
