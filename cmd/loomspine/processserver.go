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
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bigmoostache/loomspine/internal/config"
	"github.com/bigmoostache/loomspine/internal/log"
	"github.com/bigmoostache/loomspine/pkg/processsrv"
)

var processServerCmd = &cobra.Command{
	Use:   "process-server",
	Short: "Run the background process server that owns spawned children across reloads (§4.7)",
	RunE:  runProcessServer,
}

// runProcessServer blocks serving the process server's NDJSON protocol over
// cfg.ProcessSocket until interrupted. Tools that start long-running
// children dial this socket (via pkg/processsrv.Client) rather than holding
// the child themselves, so the child outlives a terminal reload.
func runProcessServer(cmd *cobra.Command, args []string) error {
	if err := config.EnsureDataDir(cfg.DataDir); err != nil {
		return fmt.Errorf("ensure data dir: %w", err)
	}

	srv, err := processsrv.Listen(cfg.ProcessSocket)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ProcessSocket, err)
	}
	defer srv.Close()

	log.Info("process-server: listening", zap.String("addr", srv.Addr()))
	fmt.Printf("loomspine: process-server listening on %s\n", srv.Addr())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-sig:
		log.Info("process-server: shutting down")
		return srv.Close()
	}
}
