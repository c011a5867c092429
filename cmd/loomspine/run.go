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
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bigmoostache/loomspine/internal/home"
	"github.com/bigmoostache/loomspine/internal/log"
	"github.com/bigmoostache/loomspine/pkg/llmclient"
	"github.com/bigmoostache/loomspine/pkg/module"
	"github.com/bigmoostache/loomspine/pkg/spine"
	"github.com/bigmoostache/loomspine/pkg/state"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive session, reading user turns from stdin",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Pipeline.Stop()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	app.Pipeline.Start(ctx)

	stopWatch := watchOpenFiles(app.State)
	defer stopWatch()

	var cumulativeOutputTokens int

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprintf(os.Stdout, "loomspine ready (data dir: %s). Type a message and press enter (Ctrl-D to exit).\n", home.Short(app.Config.DataDir))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		now := spine.NowMs()
		msg := state.NewMessage(app.State.NextMessageID("U"), "user", state.TextMessage, line, now)
		app.State.AppendMessage(msg)
		app.State.AppendNotification(state.NewNotification("", state.NotifUserMessage, "user", line, now))

		if err := runTurns(ctx, app, &cumulativeOutputTokens); err != nil {
			fmt.Fprintf(os.Stderr, "loomspine: %v\n", err)
		}

		app.Pipeline.Scan(app.State)
		app.Pipeline.Drain(app.State)
		if err := app.Save(); err != nil {
			log.Error("run: save failed", zap.Error(err))
		}
	}
	return scanner.Err()
}

// runTurns drives the spine until it reports nothing left to launch or a
// guard rail blocks, running one LLM stream (and any tool calls it emits)
// per iteration.
func runTurns(ctx context.Context, app *App, cumulativeOutputTokens *int) error {
	for {
		now := spine.NowMs()
		todoSummary := "" // todo module exposes its own panel; a full summary line isn't load-bearing here

		counters := spine.Counters{
			OutputTokens:   *cumulativeOutputTokens,
			NowMs:          now,
			MessageCount:   len(app.State.Messages),
			AutoRetryCount: app.SpineCfg.AutoContinuationCount,
		}
		app.Spine.RecordCounters(counters)

		decision := app.Spine.Step(app.State, app.SpineCfg, todoSummary, now)
		if decision.Blocked {
			fmt.Fprintf(os.Stdout, "[blocked: %s]\n", decision.BlockReason)
			return nil
		}
		if !decision.ShouldLaunch {
			return nil
		}

		app.Spine.RecordStreamStart(&app.SpineCfg, decision.Trigger, app.State, now)
		if decision.Action.SyntheticMessage != "" {
			sm := state.NewMessage(app.State.NextMessageID("U"), "user", state.TextMessage, decision.Action.SyntheticMessage, now)
			app.State.AppendMessage(sm)
		}

		stopReason, toolUses, outTokens, err := streamOnce(ctx, app)
		app.Spine.RecordStreamEnd(&app.SpineCfg, decision.Trigger)
		*cumulativeOutputTokens += outTokens
		if err != nil {
			return err
		}

		if stopReason == llmclient.StopToolUse && len(toolUses) > 0 {
			executeToolCalls(app, toolUses)
			app.State.AppendNotification(state.NewNotification("", state.NotifCustom, "tool_follow_up", "", spine.NowMs()))
			continue
		}
		return nil
	}
}

// streamOnce runs one LLM stream to completion, printing text deltas as
// they arrive and appending the resulting assistant message (and any
// tool_call envelopes) to state.
func streamOnce(ctx context.Context, app *App) (llmclient.StopReason, []module.ToolUse, int, error) {
	req := llmclient.LlmRequest{
		Model:           app.Config.Model,
		MaxOutputTokens: app.Config.MaxOutputTokens,
		Temperature:     app.Config.Temperature,
		SystemPrompt:    buildSystemPrompt(app.Registry, app.State),
		Messages:        llmclient.AssembleMessages(app.State.Messages),
		Tools:           app.Registry.ActiveToolDefinitions(app.Disabled),
	}

	events := make(chan llmclient.StreamEvent, 16)
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.LLM.Stream(ctx, req, events)
	}()

	var (
		text       string
		toolUses   []module.ToolUse
		stopReason llmclient.StopReason
		outTokens  int
	)
	for ev := range events {
		switch {
		case ev.TextDelta != "":
			fmt.Fprint(os.Stdout, ev.TextDelta)
			text += ev.TextDelta
		case ev.ToolUse != nil:
			toolUses = append(toolUses, *ev.ToolUse)
		case ev.StopReason != "":
			stopReason = ev.StopReason
		case ev.Done != nil:
			outTokens = ev.Done.OutputTokens
		}
	}
	fmt.Fprintln(os.Stdout)

	if err := <-errCh; err != nil {
		return stopReason, toolUses, outTokens, err
	}

	now := spine.NowMs()
	if len(toolUses) > 0 {
		m := state.NewMessage(app.State.NextMessageID("A"), "assistant", state.ToolCall, text, now)
		for _, tu := range toolUses {
			m.ToolUses = append(m.ToolUses, state.ToolUseRecord{ID: tu.ID, Name: tu.Name, Input: tu.Input})
		}
		app.State.AppendMessage(m)
	} else {
		m := state.NewMessage(app.State.NextMessageID("A"), "assistant", state.TextMessage, text, now)
		app.State.AppendMessage(m)
	}

	return stopReason, toolUses, outTokens, nil
}

// executeToolCalls dispatches every tool_use the model emitted and appends
// their results as one tool_result message.
func executeToolCalls(app *App, toolUses []module.ToolUse) {
	now := spine.NowMs()
	m := state.NewMessage(app.State.NextMessageID("T"), "user", state.ToolResult, "", now)
	for _, tu := range toolUses {
		result := app.Dispatch.Dispatch(tu, app.State)
		m.ToolResults = append(m.ToolResults, state.ToolResultRecord{
			ToolUseID: result.ToolUseID,
			Content:   result.Content,
			IsError:   result.IsError,
			ToolName:  result.ToolName,
		})
	}
	app.State.AppendMessage(m)
}
