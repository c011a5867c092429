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

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear a worker's panels, messages, and module state back to fresh defaults",
	RunE:  runReset,
}

// runReset wipes the in-memory worker back to the state a brand-new worker
// would start with (every module's ResetState, fixed panels re-created, no
// messages or notifications) and persists the result. The data directory
// and its process-server socket path are untouched.
func runReset(cmd *cobra.Command, args []string) error {
	app, err := NewApp(cfg)
	if err != nil {
		return err
	}

	for _, m := range app.Registry.Modules() {
		m.ResetState(app.State)
	}
	app.State.Elements = nil
	app.State.Messages = nil
	app.State.Notifications = nil

	if err := app.Registry.Init(app.State); err != nil {
		return fmt.Errorf("re-init after reset: %w", err)
	}

	if err := app.Save(); err != nil {
		return fmt.Errorf("save after reset: %w", err)
	}

	fmt.Println("loomspine: worker state reset")
	return nil
}
