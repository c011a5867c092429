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
package module

import (
	"fmt"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/bigmoostache/loomspine/pkg/state"
)

// Registry composes registered modules into one namespace of tools, panel
// factories, and state lifecycle hooks.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
	order   []string // dependency order, leaves first

	panelFactoryCache map[string]Module
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		modules:           make(map[string]Module),
		panelFactoryCache: make(map[string]Module),
	}
}

// Register adds m to the registry. Call Init after every module is
// registered to resolve dependency order and run InitState.
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[m.ID()] = m
}

// Init resolves dependency order (a configuration error on a cycle) and
// calls InitState on each module, leaves first.
func (r *Registry) Init(s *state.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, err := topoSort(r.modules)
	if err != nil {
		return err
	}
	r.order = order

	for _, id := range order {
		r.modules[id].InitState(s)
	}

	// Fixed panels: for each module, for each fixed panel default, create
	// exactly one panel of that type if none already exists.
	for _, id := range order {
		m := r.modules[id]
		for _, fp := range m.FixedPanelDefaults() {
			if len(s.PanelsOfType(fp.ContextType)) > 0 {
				continue
			}
			e := s.AddPanel("P", fp.ContextType, fp.ContextType, fp.Title, true)
			e.CacheDeprecated = fp.DeprecatedInitial
		}
	}
	return nil
}

func topoSort(modules map[string]Module) ([]string, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(modules))
	var order []string

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("module dependency cycle: %v", append(path, id))
		}
		color[id] = gray
		m, ok := modules[id]
		if !ok {
			return fmt.Errorf("module %q depends on unregistered module", id)
		}
		for _, dep := range m.Dependencies() {
			if err := visit(dep, append(path, id)); err != nil {
				return err
			}
		}
		color[id] = black
		order = append(order, id)
		return nil
	}

	ids := make([]string, 0, len(modules))
	for id := range modules {
		ids = append(ids, id)
	}
	// Deterministic iteration order for reproducible init sequencing.
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[j] < ids[i] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	for _, id := range ids {
		if err := visit(id, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Module returns the module registered under id, if any.
func (r *Registry) Module(id string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[id]
	return m, ok
}

// ModuleForTool returns the module whose ToolDefinitions include name.
func (r *Registry) ModuleForTool(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		m := r.modules[id]
		for _, td := range m.ToolDefinitions() {
			if td.Name == name {
				return m, true
			}
		}
	}
	return nil, false
}

// SuggestTool fuzzy-matches name against every registered tool name, for a
// friendlier "unknown tool" error than a bare rejection.
func (r *Registry) SuggestTool(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for _, id := range r.order {
		for _, td := range r.modules[id].ToolDefinitions() {
			names = append(names, td.Name)
		}
	}
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}

// CreatePanel looks up the first module (in dependency order, as Init runs them) whose
// CreatePanel returns non-empty for contextType; the result is cached.
func (r *Registry) CreatePanel(contextType string) (state.Panel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.panelFactoryCache[contextType]; ok {
		return m.CreatePanel(contextType)
	}
	for _, id := range r.order {
		m := r.modules[id]
		if p, ok := m.CreatePanel(contextType); ok {
			r.panelFactoryCache[contextType] = m
			return p, true
		}
	}
	return nil, false
}

// ActiveToolDefinitions returns the union of every registered module's tool
// definitions, minus names present in disabledTools.
func (r *Registry) ActiveToolDefinitions(disabledTools map[string]bool) []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ToolDefinition
	for _, id := range r.order {
		for _, td := range r.modules[id].ToolDefinitions() {
			if disabledTools[td.Name] {
				continue
			}
			out = append(out, td)
		}
	}
	return out
}

// InvalidationRules returns the union of every registered module's cache
// invalidation rules.
func (r *Registry) InvalidationRules() []InvalidationRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []InvalidationRule
	for _, id := range r.order {
		out = append(out, r.modules[id].InvalidationRules()...)
	}
	return out
}

// Modules returns every registered module in dependency (init) order.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Module, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.modules[id])
	}
	return out
}
