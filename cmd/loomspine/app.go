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
	"context"
	"fmt"
	"path/filepath"

	"github.com/bigmoostache/loomspine/internal/config"
	"github.com/bigmoostache/loomspine/internal/pubsub"
	"github.com/bigmoostache/loomspine/pkg/cacherefresh"
	"github.com/bigmoostache/loomspine/pkg/callback"
	"github.com/bigmoostache/loomspine/pkg/llmclient"
	"github.com/bigmoostache/loomspine/pkg/module"
	"github.com/bigmoostache/loomspine/pkg/modules/files"
	"github.com/bigmoostache/loomspine/pkg/modules/git"
	"github.com/bigmoostache/loomspine/pkg/modules/memory"
	"github.com/bigmoostache/loomspine/pkg/modules/todo"
	"github.com/bigmoostache/loomspine/pkg/spine"
	"github.com/bigmoostache/loomspine/pkg/state"
	"github.com/bigmoostache/loomspine/pkg/tooldispatch"
)

// App bundles one worker's subsystems: the module registry, its dispatcher,
// the spine control plane, the cache refresh pipeline, the callback engine,
// and the LLM client — everything run/reset/export/import share.
type App struct {
	Config   *config.Config
	Registry *module.Registry
	Dispatch *tooldispatch.Dispatcher
	Spine    *spine.Spine
	Pipeline *cacherefresh.Pipeline
	Callback *callback.Engine
	LLM      llmclient.StreamingClient
	Events   *pubsub.Broker[string]

	State      *state.State
	SpineCfg   spine.Config
	Disabled   map[string]bool
}

// NewApp wires every subsystem for one worker rooted at cfg.DataDir, loading
// persisted state if present.
func NewApp(cfg *config.Config) (*App, error) {
	if err := config.EnsureDataDir(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	registry := module.NewRegistry()
	registry.Register(todo.Module{})
	registry.Register(memory.Module{})
	registry.Register(files.Module{})
	registry.Register(git.Module{})

	loaders := map[string]state.ModuleLoader{
		todo.Module{}.ID():   todo.Module{}.LoadModuleData,
		memory.Module{}.ID(): memory.Module{}.LoadModuleData,
		files.Module{}.ID():  files.Module{}.LoadModuleData,
		git.Module{}.ID():    git.Module{}.LoadModuleData,
	}

	s, err := state.Load(pathFor(cfg), loaders)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if err := registry.Init(s); err != nil {
		return nil, fmt.Errorf("init registry: %w", err)
	}

	disabled := make(map[string]bool)
	dispatch := tooldispatch.New(registry, disabled)

	callbackRegistry := callback.NewRegistry()
	callbackEngine := callback.NewEngine(cfg.DataDir, callbackRegistry)
	dispatch.SetCallbackHook(callbackEngine)

	pipeline := cacherefresh.New(4)
	pipeline.Register(files.ContextType, files.Refresher{})
	pipeline.Register(git.ContextType, git.Refresher{})

	var llm llmclient.StreamingClient
	switch cfg.Provider {
	case "bedrock":
		bc, err := llmclient.NewBedrockClient(context.Background(), llmclient.BedrockConfig{Region: cfg.BedrockRegion})
		if err != nil {
			return nil, fmt.Errorf("bedrock client: %w", err)
		}
		llm = bc
	default:
		llm = llmclient.NewAnthropicClient(cfg.AnthropicAPIKey, "")
	}

	return &App{
		Config:   cfg,
		Registry: registry,
		Dispatch: dispatch,
		Spine:    spine.New(),
		Pipeline: pipeline,
		Callback: callbackEngine,
		LLM:      llm,
		Events:   pubsub.NewBroker[string](),
		State:    s,
		SpineCfg: spine.LoadConfig(s.SpineConfig()),
		Disabled: disabled,
	}, nil
}

// Save atomically persists a.State, including every registered module's
// opaque data and the spine's own config.
func (a *App) Save() error {
	a.State.SetSpineConfig(a.SpineCfg.Marshal())
	savers := map[string]state.ModuleSaver{}
	for _, m := range a.Registry.Modules() {
		savers[m.ID()] = m.SaveModuleData
	}
	return state.Save(a.State, pathFor(a.Config), savers)
}

func pathFor(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "state.json")
}
