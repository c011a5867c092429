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
	"fmt"
	"sort"

	"github.com/bigmoostache/loomspine/internal/csync"
)

// Manager tracks every session a process server has spawned for the
// lifetime of its own process. It is the single owner of child-process
// state; every Request the server receives is dispatched through it.
type Manager struct {
	sessions *csync.Map[string, *session]
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: csync.NewMap[string, *session]()}
}

// Start spawns a new supervised process and returns its pid and key.
func (m *Manager) Start(command, cwd, logPath string) (pid int, key string, err error) {
	if command == "" {
		return 0, "", fmt.Errorf("processsrv: start requires a command")
	}
	if logPath == "" {
		return 0, "", fmt.Errorf("processsrv: start requires a log_path")
	}
	s, err := newSession(command, cwd, logPath)
	if err != nil {
		return 0, "", err
	}

	m.sessions.Set(s.key, s)

	return s.pid(), s.key, nil
}

// Stop terminates the session for key (SIGTERM then SIGKILL after grace).
func (m *Manager) Stop(key string) error {
	s, err := m.lookup(key)
	if err != nil {
		return err
	}
	return s.stop()
}

// Status reports a session's current run state.
func (m *Manager) Status(key string) (status string, exitCode *int, err error) {
	s, err := m.lookup(key)
	if err != nil {
		return "", nil, err
	}
	status, exitCode = s.status()
	return status, exitCode, nil
}

// Input writes decoded bytes to a session's stdin.
func (m *Manager) Input(key string, data []byte) error {
	s, err := m.lookup(key)
	if err != nil {
		return err
	}
	return s.input(data)
}

// List returns every tracked session, sorted by key.
func (m *Manager) List() []SessionInfo {
	var out []SessionInfo
	m.sessions.Seq(func(_ string, s *session) bool {
		status, exitCode := s.status()
		out = append(out, SessionInfo{Key: s.key, Pid: s.pid(), Status: status, ExitCode: exitCode})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (m *Manager) lookup(key string) (*session, error) {
	s, ok := m.sessions.Get(key)
	if !ok {
		return nil, fmt.Errorf("processsrv: unknown session key %q", key)
	}
	return s, nil
}
