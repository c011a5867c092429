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

// Package tooldispatch couples streaming LLM tool_use events to the module
// registry: it resolves a tool name to its owning module, validates
// arguments against the tool's declared schema, executes it, applies cache
// invalidation rules, and runs the callback engine over any edited paths.
// Tool execution never throws to the dispatcher's caller; every failure
// becomes an is_error ToolResult.
package tooldispatch

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/bigmoostache/loomspine/internal/log"
	"github.com/bigmoostache/loomspine/pkg/module"
	"github.com/bigmoostache/loomspine/pkg/state"
)

// CallbackHook lets the callback engine (§4.9) intercept a file-mutating
// tool's result before it is appended to the conversation. Implementations
// return the (possibly rewritten) result.
type CallbackHook interface {
	// AfterFileEdit is invoked for tools whose ToolDefinition.Category is
	// "files", with the paths the tool's input names.
	AfterFileEdit(result module.ToolResult, paths []string) module.ToolResult
}

// Dispatcher wires one Registry to one State and runs the steps of §4.4.
type Dispatcher struct {
	registry *module.Registry

	mu            sync.RWMutex
	disabledTools map[string]bool

	callbacks CallbackHook

	// schemaCache avoids rebuilding a gojsonschema.Schema per call.
	schemaCache map[string]*gojsonschema.Schema
}

// New creates a Dispatcher over registry. disabledTools may be nil.
func New(registry *module.Registry, disabledTools map[string]bool) *Dispatcher {
	if disabledTools == nil {
		disabledTools = make(map[string]bool)
	}
	return &Dispatcher{
		registry:      registry,
		disabledTools: disabledTools,
		schemaCache:   make(map[string]*gojsonschema.Schema),
	}
}

// SetCallbackHook installs the callback engine used after file-mutating
// tools (step 6 of §4.4). Nil disables the hook.
func (d *Dispatcher) SetCallbackHook(h CallbackHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callbacks = h
}

// SetDisabled replaces the disabled-tools set.
func (d *Dispatcher) SetDisabled(disabled map[string]bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disabledTools = disabled
}

// Dispatch executes one tool_use against s and returns its ToolResult. It
// never returns a Go error: every failure is represented as
// ToolResult.IsError.
func (d *Dispatcher) Dispatch(tu module.ToolUse, s *state.State) module.ToolResult {
	start := time.Now()
	defer func() {
		log.Debug("tooldispatch: dispatched",
			zap.String("tool", tu.Name),
			zap.String("tool_use_id", tu.ID),
			zap.Duration("elapsed", time.Since(start)),
		)
	}()

	// Step 1: resolve name -> owning module.
	m, ok := d.registry.ModuleForTool(tu.Name)
	if !ok {
		msg := fmt.Sprintf("unknown tool: %s", tu.Name)
		if suggestion, ok := d.registry.SuggestTool(tu.Name); ok {
			msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
		}
		return errResult(tu, msg)
	}

	// Step 2: disabled_tools short-circuit.
	d.mu.RLock()
	disabled := d.disabledTools[tu.Name]
	d.mu.RUnlock()
	if disabled {
		return errResult(tu, fmt.Sprintf("tool %q is disabled", tu.Name))
	}

	// Step 3: validate input against the declared schema.
	def, ok := findDefinition(m, tu.Name)
	if !ok {
		return errResult(tu, fmt.Sprintf("tool %q has no definition", tu.Name))
	}
	if err := d.validate(def, tu.Input); err != nil {
		return errResult(tu, fmt.Sprintf("invalid arguments: %v", err))
	}

	// Step 4: execute.
	result, ok := m.ExecuteTool(tu, s)
	if !ok {
		return errResult(tu, fmt.Sprintf("module %q declined tool %q", m.ID(), tu.Name))
	}
	result.ToolUseID = tu.ID
	if result.ToolName == "" {
		result.ToolName = tu.Name
	}

	// Step 5: cache invalidation, only after a successful mutation.
	if !result.IsError {
		d.invalidate(tu, s)
	}

	// Step 6: callback engine for file-mutating tools.
	if !result.IsError && def.Category == "files" {
		d.mu.RLock()
		hook := d.callbacks
		d.mu.RUnlock()
		if hook != nil {
			paths := editedPaths(tu.Input)
			if len(paths) > 0 {
				result = hook.AfterFileEdit(result, paths)
			}
		}
	}

	return result
}

func findDefinition(m module.Module, name string) (module.ToolDefinition, bool) {
	for _, td := range m.ToolDefinitions() {
		if td.Name == name {
			return td, true
		}
	}
	return module.ToolDefinition{}, false
}

// validate checks required parameters are present and builds/runs a JSON
// Schema derived from def.Parameters against raw input.
func (d *Dispatcher) validate(def module.ToolDefinition, raw json.RawMessage) error {
	var args map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return fmt.Errorf("malformed input: %w", err)
		}
	}
	if args == nil {
		args = map[string]any{}
	}
	for _, p := range def.Parameters {
		if p.Required {
			if _, present := args[p.Name]; !present {
				return fmt.Errorf("missing required parameter %q", p.Name)
			}
		}
	}

	schema, err := d.schemaFor(def)
	if err != nil || schema == nil {
		return nil // no schema available: required-field check above already ran
	}
	doc := gojsonschema.NewGoLoader(args)
	res, err := schema.Validate(doc)
	if err != nil {
		return err
	}
	if !res.Valid() {
		errs := res.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("%s", errs[0].String())
		}
		return fmt.Errorf("schema validation failed")
	}
	return nil
}

func (d *Dispatcher) schemaFor(def module.ToolDefinition) (*gojsonschema.Schema, error) {
	d.mu.RLock()
	s, ok := d.schemaCache[def.Name]
	d.mu.RUnlock()
	if ok {
		return s, nil
	}

	raw := buildJSONSchema(def)
	loader := gojsonschema.NewGoLoader(raw)
	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.schemaCache[def.Name] = schema
	d.mu.Unlock()
	return schema, nil
}

// buildJSONSchema translates a ToolDefinition's flat Parameter list into a
// JSON Schema object, recursing one level for Array(ParamType) element
// schemas.
func buildJSONSchema(def module.ToolDefinition) map[string]any {
	props := make(map[string]any, len(def.Parameters))
	var required []string
	for _, p := range def.Parameters {
		props[p.Name] = paramSchema(p)
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func paramSchema(p module.Parameter) map[string]any {
	switch p.Type {
	case module.ParamString:
		return map[string]any{"type": "string"}
	case module.ParamBoolean:
		return map[string]any{"type": "boolean"}
	case module.ParamInteger:
		return map[string]any{"type": "integer"}
	case module.ParamArray:
		items := map[string]any{}
		if p.Items != nil {
			items = paramSchema(*p.Items)
		}
		return map[string]any{"type": "array", "items": items}
	default:
		return map[string]any{}
	}
}

// invalidate applies §4.4 step 5: every registered InvalidationRule whose
// TriggerPattern matches the tool name or its shell-command argument (if
// any, under "command") touches every panel whose source matches one of its
// PanelMatchPatterns.
func (d *Dispatcher) invalidate(tu module.ToolUse, s *state.State) {
	trigger := tu.Name
	var args map[string]any
	if len(tu.Input) > 0 {
		if err := json.Unmarshal(tu.Input, &args); err == nil {
			if cmd, ok := args["command"].(string); ok && cmd != "" {
				trigger = cmd
			}
		}
	}

	for _, rule := range d.registry.InvalidationRules() {
		re, err := regexp.Compile(rule.TriggerPattern)
		if err != nil {
			log.Warn("tooldispatch: invalid invalidation trigger pattern",
				zap.String("rule", rule.Name), zap.Error(err))
			continue
		}
		if !re.MatchString(trigger) {
			continue
		}
		for _, panelPattern := range rule.PanelMatchPatterns {
			pre, err := regexp.Compile(panelPattern)
			if err != nil {
				continue
			}
			s.RLock()
			var uids []string
			for _, e := range s.Elements {
				meta := e.Metadata["source_command"]
				if pre.MatchString(e.Type) || pre.MatchString(meta) {
					uids = append(uids, e.UID)
				}
			}
			s.RUnlock()
			for _, uid := range uids {
				s.TouchPanelByUID(uid)
			}
		}
	}
}

// editedPaths extracts a best-effort list of file paths a files-category
// tool's input names, trying the conventional "path"/"paths" argument
// shapes.
func editedPaths(raw json.RawMessage) []string {
	var args map[string]any
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil
	}
	if p, ok := args["path"].(string); ok && p != "" {
		return []string{p}
	}
	if p, ok := args["file_path"].(string); ok && p != "" {
		return []string{p}
	}
	if arr, ok := args["paths"].([]any); ok {
		out := make([]string, 0, len(arr))
		for _, v := range arr {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func errResult(tu module.ToolUse, msg string) module.ToolResult {
	return module.ToolResult{ToolUseID: tu.ID, Content: msg, IsError: true, ToolName: tu.Name}
}
