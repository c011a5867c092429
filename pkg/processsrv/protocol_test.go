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
)

func TestInterpretEscapes_KnownEscapes(t *testing.T) {
	out := InterpretEscapes(`a\nb\rc\td\\e\e\0f`)
	expected := []byte{'a', 0x0A, 'b', 0x0D, 'c', 0x09, 'd', '\\', 'e', 0x1B, 0x00, 'f'}
	assert.Equal(t, expected, out)
}

func TestInterpretEscapes_HexByte(t *testing.T) {
	out := InterpretEscapes(`\x41\x42`)
	assert.Equal(t, []byte("AB"), out)
}

func TestInterpretEscapes_UnrecognizedEscapePreservesBackslash(t *testing.T) {
	out := InterpretEscapes(`\q`)
	assert.Equal(t, []byte(`\q`), out)
}

func TestInterpretEscapes_TrailingBackslashPreserved(t *testing.T) {
	out := InterpretEscapes(`abc\`)
	assert.Equal(t, []byte(`abc\`), out)
}

func TestInterpretEscapes_IncompleteHexFallsBackToBackslash(t *testing.T) {
	out := InterpretEscapes(`\xG`)
	assert.Equal(t, []byte(`\xG`), out)
}
