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
package processsrv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBuffer_AppendWithinCapacity(t *testing.T) {
	rb := NewRingBuffer(16)
	rb.Write([]byte("hello"))
	rb.Write([]byte(" world"))
	require.Equal(t, "hello world", string(rb.Snapshot()))
	assert.Equal(t, 11, rb.Len())
}

func TestRingBuffer_DiscardsOldestOnOverflow(t *testing.T) {
	rb := NewRingBuffer(5)
	rb.Write([]byte("abcde"))
	rb.Write([]byte("fg"))
	assert.Equal(t, "cdefg", string(rb.Snapshot()))
	assert.Equal(t, 5, rb.Len())
}

func TestRingBuffer_SingleWriteLargerThanCapacity(t *testing.T) {
	rb := NewRingBuffer(3)
	rb.Write([]byte("abcdefgh"))
	assert.Equal(t, "fgh", string(rb.Snapshot()))
}
