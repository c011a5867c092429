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
	"net"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// Client is a thin request/response wrapper over the process server's
// local socket, one connection per Client. Every tool that starts a
// process talks to the server exclusively through a Client.
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	network string
}

// Dial connects to a process server listening at addr (a UNIX socket path
// on POSIX, a "host:port" on Windows — matching Server.Addr's format).
func Dial(addr string) (*Client, error) {
	network := "unix"
	if _, _, err := net.SplitHostPort(addr); err == nil {
		network = "tcp"
	}
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn), network: network}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) call(req Request) (Response, error) {
	var resp Response
	data, err := json.Marshal(req)
	if err != nil {
		return resp, err
	}
	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return resp, err
	}
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return resp, err
	}
	err = json.Unmarshal(line, &resp)
	return resp, err
}

// Start issues a `start` request.
func (c *Client) Start(command, cwd, logPath string) (Response, error) {
	return c.call(Request{Cmd: "start", Command: command, Cwd: cwd, LogPath: logPath})
}

// Stop issues a `stop` request.
func (c *Client) Stop(key string) (Response, error) {
	return c.call(Request{Cmd: "stop", Key: key})
}

// Status issues a `status` request.
func (c *Client) Status(key string) (Response, error) {
	return c.call(Request{Cmd: "status", Key: key})
}

// Input issues an `input` request; the server decodes escapes on its side.
func (c *Client) Input(key, input string) (Response, error) {
	return c.call(Request{Cmd: "input", Key: key, Input: input})
}

// List issues a `list` request.
func (c *Client) List() (Response, error) {
	return c.call(Request{Cmd: "list"})
}

// FilePoller tails logPath into a bounded RingBuffer. Grounded in
// original_source/crates/cp-mod-console/src/pollers.rs's file_poller /
// file_poller_from_offset: 64 KiB reads on a 100 ms cadence, plus one
// final read after Stop to flush anything written during the 300 ms
// grace period.
type FilePoller struct {
	Buffer *RingBuffer

	path   string
	stop   int32
	done   chan struct{}
	offset int64
}

const (
	filePollChunk    = 64 * 1024
	filePollInterval = 100 * time.Millisecond
	filePollGrace    = 300 * time.Millisecond
)

// NewFilePoller starts tailing path in a background goroutine. Call Stop
// when the owning session is no longer expected to produce output.
func NewFilePoller(path string, capacity int) *FilePoller {
	p := &FilePoller{
		Buffer: NewRingBuffer(capacity),
		path:   path,
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *FilePoller) run() {
	defer close(p.done)
	ticker := time.NewTicker(filePollInterval)
	defer ticker.Stop()

	for range ticker.C {
		p.readChunk()
		if atomic.LoadInt32(&p.stop) == 1 {
			time.Sleep(filePollGrace)
			p.readChunk()
			return
		}
	}
}

func (p *FilePoller) readChunk() {
	f, err := os.Open(p.path)
	if err != nil {
		return
	}
	defer f.Close()

	if _, err := f.Seek(p.offset, 0); err != nil {
		return
	}
	buf := make([]byte, filePollChunk)
	n, _ := f.Read(buf)
	if n > 0 {
		p.Buffer.Write(buf[:n])
		p.offset += int64(n)
	}
}

// Stop requests the poller exit after one final grace-period read.
func (p *FilePoller) Stop() {
	atomic.StoreInt32(&p.stop, 1)
}

// Wait blocks until the poller goroutine has exited.
func (p *FilePoller) Wait() { <-p.done }

// StatusPoller polls a session's status every 500 ms until it reaches a
// terminal state or the server becomes unreachable. Grounded in
// original_source/crates/cp-mod-console/src/pollers.rs's
// poll_server_status.
type StatusPoller struct {
	client *Client
	key    string

	Terminal chan TerminalStatus

	stop int32
	done chan struct{}
}

// TerminalStatus reports a session's final state as observed by the
// status poller.
type TerminalStatus struct {
	Status   string
	ExitCode int
}

const statusPollInterval = 500 * time.Millisecond

// NewStatusPoller begins polling key's status over client in a background
// goroutine. It sends one TerminalStatus to the Terminal channel when the
// session has exited or the server is unreachable; after Stop it exits
// without sending.
func NewStatusPoller(client *Client, key string) *StatusPoller {
	p := &StatusPoller{
		client:   client,
		key:      key,
		Terminal: make(chan TerminalStatus, 1),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *StatusPoller) run() {
	defer close(p.done)
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		if atomic.LoadInt32(&p.stop) == 1 {
			return
		}
		resp, err := p.client.Status(p.key)
		if err != nil {
			p.Terminal <- TerminalStatus{Status: "exited", ExitCode: -1}
			return
		}
		if !resp.OK {
			p.Terminal <- TerminalStatus{Status: "exited", ExitCode: -1}
			return
		}
		if strings.HasPrefix(resp.Status, "exited") {
			code := 0
			if resp.ExitCode != nil {
				code = *resp.ExitCode
			}
			p.Terminal <- TerminalStatus{Status: resp.Status, ExitCode: code}
			return
		}
	}
}

// Stop requests the poller exit before its next tick; in-flight polls
// still complete.
func (p *StatusPoller) Stop() {
	atomic.StoreInt32(&p.stop, 1)
}

// Wait blocks until the poller goroutine has exited.
func (p *StatusPoller) Wait() { <-p.done }
