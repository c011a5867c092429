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
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/bigmoostache/loomspine/internal/log"
)

// Server is the single local IPC server of §4.7: it owns a Manager and
// speaks newline-delimited JSON request/response over a local stream
// socket (a UNIX domain socket on POSIX, a loopback TCP port on Windows,
// mirroring the teacher's platform-detection idiom in shell_execute.go's
// detectShell).
type Server struct {
	manager  *Manager
	listener net.Listener
	addr     string
}

// Listen binds the process server's socket at path (ignored on Windows,
// where a loopback TCP port is used instead since UNIX sockets aren't
// available).
func Listen(path string) (*Server, error) {
	manager := NewManager()

	if runtime.GOOS == "windows" {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, err
		}
		return &Server{manager: manager, listener: ln, addr: ln.Addr().String()}, nil
	}

	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	return &Server{manager: manager, listener: ln, addr: path}, nil
}

// Addr returns the socket path (POSIX) or "host:port" (Windows) a client
// should dial.
func (s *Server) Addr() string { return s.addr }

// Manager exposes the underlying session manager, e.g. for in-process
// shutdown to stop every still-running child.
func (s *Server) Manager() *Manager { return s.manager }

// Serve accepts connections until the listener is closed. Each connection
// is handled on its own goroutine per §5's "socket I/O inside the process
// server" as a named blocking point; the Manager is the only shared,
// mutex-guarded state across them.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			_ = enc.Encode(errResponse(fmt.Sprintf("malformed request: %v", err)))
			continue
		}
		resp := s.dispatch(req)
		if err := enc.Encode(resp); err != nil {
			log.Warn("processsrv: write response failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) dispatch(req Request) Response {
	switch req.Cmd {
	case "start":
		pid, key, err := s.manager.Start(req.Command, req.Cwd, req.LogPath)
		if err != nil {
			return errResponse(err.Error())
		}
		return okPid(pid, key)

	case "stop":
		if err := s.manager.Stop(req.Key); err != nil {
			return errResponse(err.Error())
		}
		return okResponse()

	case "status":
		status, exitCode, err := s.manager.Status(req.Key)
		if err != nil {
			return errResponse(err.Error())
		}
		return okStatus(formatStatus(status, exitCode), exitCode)

	case "input":
		if err := s.manager.Input(req.Key, InterpretEscapes(req.Input)); err != nil {
			return errResponse(err.Error())
		}
		return okResponse()

	case "list":
		sessions := s.manager.List()
		for i := range sessions {
			sessions[i].Status = formatStatus(sessions[i].Status, sessions[i].ExitCode)
		}
		return okSessions(sessions)

	default:
		return errResponse(fmt.Sprintf("unknown cmd %q", req.Cmd))
	}
}

// formatStatus renders the wire-level status string §4.7 specifies:
// "running" while alive, "exited:<code>" once terminated.
func formatStatus(status string, exitCode *int) string {
	if status == "running" || exitCode == nil {
		return status
	}
	return fmt.Sprintf("exited:%d", *exitCode)
}
