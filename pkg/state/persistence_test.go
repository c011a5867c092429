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
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad_RoundTripsPanelsMessagesAndNotifications(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s := New()
	panel := s.AddPanel("P", "file", "file", "a.txt", false)
	panel.Metadata["file_path"] = "/a.txt"
	s.AppendMessage(NewMessage("", "user", TextMessage, "hi", 1000))
	s.AppendNotification(NewNotification("", NotifUserMessage, "user", "hi", 1000))

	require.NoError(t, Save(s, path, nil))

	loaded, err := Load(path, nil)
	require.NoError(t, err)

	require.Len(t, loaded.Elements, 1)
	assert.Equal(t, panel.ID, loaded.Elements[0].ID)
	assert.Equal(t, panel.UID, loaded.Elements[0].UID)
	require.Len(t, loaded.Messages, 1)
	require.Len(t, loaded.Notifications, 1)
}

func TestSaveLoad_MissingFileYieldsEmptyState(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"), nil)
	require.NoError(t, err)
	assert.Empty(t, loaded.Elements)
	assert.Empty(t, loaded.Messages)
}

func TestSaveLoad_MalformedJSONYieldsDefaultsInsteadOfError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o644))

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.NotNil(t, loaded)
}

// TestSaveLoad_ReloadNeverReissuesAnExistingID guards the invariant that ids
// allocated before a save are never handed out again after a reload, even
// though the per-prefix counters themselves aren't part of the persisted
// envelope.
func TestSaveLoad_ReloadNeverReissuesAnExistingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s := New()
	s.AppendMessage(NewMessage(s.NextMessageID("U"), "user", TextMessage, "first", 0))
	s.AppendMessage(NewMessage(s.NextMessageID("U"), "user", TextMessage, "second", 0))
	s.AppendNotification(NewNotification("", NotifUserMessage, "user", "", 0))
	s.AppendNotification(NewNotification("", NotifUserMessage, "user", "", 0))
	require.NoError(t, Save(s, path, nil))

	loaded, err := Load(path, nil)
	require.NoError(t, err)

	loaded.AppendMessage(NewMessage(loaded.NextMessageID("U"), "user", TextMessage, "third", 0))
	newN := loaded.AppendNotification(NewNotification("", NotifUserMessage, "user", "", 0))

	existingMsgIDs := map[string]bool{}
	for _, m := range loaded.Messages[:2] {
		existingMsgIDs[m.ID] = true
	}
	assert.False(t, existingMsgIDs[loaded.Messages[2].ID], "new message id %q collides with an existing one", loaded.Messages[2].ID)
	assert.NotEqual(t, loaded.Notifications[0].ID, newN.ID)
	assert.NotEqual(t, loaded.Notifications[1].ID, newN.ID)
}

func TestSaveLoad_ModuleDataRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := New()
	SetExt(s, "demo", map[string]int{"count": 3})

	savers := map[string]ModuleSaver{
		"demo": func(s *State) (json.RawMessage, error) {
			v, _ := Ext[map[string]int](s, "demo")
			return json.Marshal(v)
		},
	}
	require.NoError(t, Save(s, path, savers))

	var got map[string]int
	loaders := map[string]ModuleLoader{
		"demo": func(data json.RawMessage, s *State) error {
			return json.Unmarshal(data, &got)
		},
	}
	_, err := Load(path, loaders)
	require.NoError(t, err)
	assert.Equal(t, 3, got["count"])
}
