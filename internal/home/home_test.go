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
package home

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShort_ReplacesHomePrefixWithTilde(t *testing.T) {
	home := UserHome()
	if home == "" {
		t.Skip("no resolvable home directory in this environment")
	}
	path := filepath.Join(home, ".loomspine", "state.json")
	assert.Equal(t, "~/.loomspine/state.json", Short(path))
}

func TestShort_LeavesUnrelatedPathUnchanged(t *testing.T) {
	assert.Equal(t, "/var/tmp/state.json", Short("/var/tmp/state.json"))
}

func TestDir_EndsInDotLoom(t *testing.T) {
	dir, err := Dir()
	assert.NoError(t, err)
	assert.Equal(t, ".loom", filepath.Base(dir))
}
