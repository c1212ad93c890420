/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"

	"chainguard.dev/webster/agents/toolcall/params"
)

// ToolCall is a provider-independent representation of a tool call.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Definition describes a tool's schema (name, description, parameters).
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter

	// InputSchema, when set, is used verbatim instead of the schema derived
	// from Parameters. Tools discovered from a remote server carry their own.
	InputSchema map[string]any
}

// Parameter describes a single tool parameter.
type Parameter struct {
	Name        string
	Type        string // "string", "integer", "boolean", "number"
	Description string
	Required    bool
	Default     any
	Enum        []any // allowed values, when restricted
}

// JSONSchema renders the definition's parameters as a JSON schema object.
func (d Definition) JSONSchema() map[string]any {
	if d.InputSchema != nil {
		return d.InputSchema
	}

	properties := make(map[string]any, len(d.Parameters))
	required := make([]string, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// Properties returns the "properties" member of the definition's JSON schema.
func (d Definition) Properties() map[string]any {
	props, _ := d.JSONSchema()["properties"].(map[string]any)
	if props == nil {
		return map[string]any{}
	}
	return props
}

// Required returns the names of the definition's required parameters.
func (d Definition) Required() []string {
	switch req := d.JSONSchema()["required"].(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Handler executes a tool call and returns its textual result.
// Failures are reported in the returned text, never as a Go error, so the
// model can read them and choose another action.
type Handler func(ctx context.Context, call ToolCall) string

// Tool defines a tool once with a single handler that works with any provider.
type Tool struct {
	Def     Definition
	Handler Handler
}

// Param extracts a required parameter from the tool call args.
// On failure the second return value holds the error text to hand back to the model.
func Param[T any](call ToolCall, name string) (T, string) {
	v, err := params.Extract[T](call.Args, name)
	if err != nil {
		return v, params.Error("%s", err)
	}
	return v, ""
}

// OptionalParam extracts an optional parameter from the tool call args.
func OptionalParam[T any](call ToolCall, name string, defaultValue T) (T, string) {
	v, err := params.ExtractOptional[T](call.Args, name, defaultValue)
	if err != nil {
		return v, params.Error("%s", err)
	}
	return v, ""
}
