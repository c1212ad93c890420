/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"chainguard.dev/webster/agents/toolcall"
	"github.com/google/go-cmp/cmp"
)

func TestDefinitionJSONSchema(t *testing.T) {
	def := toolcall.Definition{
		Name:        "wait_for_selector",
		Description: "Wait for a selector",
		Parameters: []toolcall.Parameter{
			{Name: "selector", Type: "string", Description: "CSS selector", Required: true},
			{Name: "timeout_ms", Type: "integer", Description: "Max wait", Default: 10000},
			{Name: "state", Type: "string", Enum: []any{"visible", "hidden"}},
		},
	}

	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"selector":   map[string]any{"type": "string", "description": "CSS selector"},
			"timeout_ms": map[string]any{"type": "integer", "description": "Max wait", "default": 10000},
			"state":      map[string]any{"type": "string", "enum": []any{"visible", "hidden"}},
		},
		"required": []string{"selector"},
	}
	if diff := cmp.Diff(want, def.JSONSchema()); diff != "" {
		t.Errorf("JSONSchema() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"selector"}, def.Required()); diff != "" {
		t.Errorf("Required() mismatch (-want +got):\n%s", diff)
	}
}

func TestDefinitionInputSchemaOverride(t *testing.T) {
	raw := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"owner": map[string]any{"type": "string"},
		},
		"required": []any{"owner"},
	}
	def := toolcall.Definition{Name: "get_file_contents", InputSchema: raw}

	if diff := cmp.Diff(raw, def.JSONSchema()); diff != "" {
		t.Errorf("JSONSchema() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"owner"}, def.Required()); diff != "" {
		t.Errorf("Required() mismatch (-want +got):\n%s", diff)
	}
	if _, ok := def.Properties()["owner"]; !ok {
		t.Error("Properties() missing owner")
	}
}

func TestParam(t *testing.T) {
	call := toolcall.ToolCall{
		ID:   "call-1",
		Name: "open_page",
		Args: map[string]any{"url": "https://example.com", "count": float64(3)},
	}

	url, errText := toolcall.Param[string](call, "url")
	if errText != "" {
		t.Fatalf("Param(url) error: %s", errText)
	}
	if url != "https://example.com" {
		t.Errorf("Param(url) = %q", url)
	}

	if _, errText := toolcall.Param[string](call, "selector"); !strings.HasPrefix(errText, "Error: ") {
		t.Errorf("Param(selector) error = %q, want Error: prefix", errText)
	}

	count, errText := toolcall.OptionalParam(call, "count", 1)
	if errText != "" || count != 3 {
		t.Errorf("OptionalParam(count) = %d, %q", count, errText)
	}
	base, errText := toolcall.OptionalParam(call, "base", "main")
	if errText != "" || base != "main" {
		t.Errorf("OptionalParam(base) = %q, %q", base, errText)
	}
}

type typeIntoArgs struct {
	Selector   string `json:"selector" jsonschema:"required,description=CSS selector for the target field."`
	Text       string `json:"text" jsonschema:"required,description=Text to input."`
	ClearFirst bool   `json:"clear_first" jsonschema:"description=Replace existing content."`
	PressEnter bool   `json:"press_enter" jsonschema:"description=Press Enter after typing."`
}

func TestTyped(t *testing.T) {
	var got typeIntoArgs
	tool := toolcall.Typed("type_into", "Type text into a field.", typeIntoArgs{ClearFirst: true},
		func(_ context.Context, args typeIntoArgs) string {
			got = args
			return fmt.Sprintf("Typed into '%s'.", args.Selector)
		})

	wantParams := []toolcall.Parameter{
		{Name: "selector", Type: "string", Description: "CSS selector for the target field.", Required: true},
		{Name: "text", Type: "string", Description: "Text to input.", Required: true},
		{Name: "clear_first", Type: "boolean", Description: "Replace existing content.", Default: true},
		{Name: "press_enter", Type: "boolean", Description: "Press Enter after typing.", Default: false},
	}
	if diff := cmp.Diff(wantParams, tool.Def.Parameters); diff != "" {
		t.Errorf("Parameters mismatch (-want +got):\n%s", diff)
	}

	result := tool.Handler(context.Background(), toolcall.ToolCall{
		Name: "type_into",
		Args: map[string]any{"selector": "#q", "text": "hello"},
	})
	if result != "Typed into '#q'." {
		t.Errorf("Handler() = %q", result)
	}
	want := typeIntoArgs{Selector: "#q", Text: "hello", ClearFirst: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}

	missing := tool.Handler(context.Background(), toolcall.ToolCall{
		Name: "type_into",
		Args: map[string]any{"selector": "#q"},
	})
	if missing != "Error: text parameter is required" {
		t.Errorf("Handler() with missing arg = %q", missing)
	}

	wrongType := tool.Handler(context.Background(), toolcall.ToolCall{
		Name: "type_into",
		Args: map[string]any{"selector": "#q", "text": "x", "clear_first": "yes"},
	})
	if !strings.HasPrefix(wrongType, "Error: invalid type_into arguments") {
		t.Errorf("Handler() with wrong type = %q", wrongType)
	}
}

func TestTypedEnum(t *testing.T) {
	type severityArgs struct {
		Severity string `json:"severity" jsonschema:"required,enum=error,enum=warning,enum=info"`
	}
	tool := toolcall.Typed("rate", "Rate an issue.", severityArgs{},
		func(context.Context, severityArgs) string { return "ok" })

	props := tool.Def.Properties()
	want := map[string]any{"type": "string", "enum": []any{"error", "warning", "info"}}
	if diff := cmp.Diff(want, props["severity"]); diff != "" {
		t.Errorf("severity schema mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogVisible(t *testing.T) {
	named := func(name string) toolcall.Tool {
		return toolcall.Tool{Def: toolcall.Definition{Name: name}}
	}
	catalog := toolcall.Catalog{}.
		Add(toolcall.Always, named("open_page"), named("submit_diagnostic")).
		Add(toolcall.FixModeOnly, named("gh_create_branch"))

	names := func(tools []toolcall.Tool) []string {
		out := make([]string, 0, len(tools))
		for _, tool := range toolcall.Definitions(tools) {
			out = append(out, tool.Name)
		}
		return out
	}

	if diff := cmp.Diff([]string{"open_page", "submit_diagnostic"}, names(catalog.Visible(false))); diff != "" {
		t.Errorf("Visible(false) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"open_page", "submit_diagnostic", "gh_create_branch"}, names(catalog.Visible(true))); diff != "" {
		t.Errorf("Visible(true) mismatch (-want +got):\n%s", diff)
	}
}

func TestIndexRejectsDuplicates(t *testing.T) {
	tool := toolcall.Tool{Def: toolcall.Definition{Name: "fetch_page"}}
	if _, err := toolcall.Index([]toolcall.Tool{tool, tool}); err == nil {
		t.Fatal("expected duplicate name error")
	}
	byName, err := toolcall.Index([]toolcall.Tool{tool})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := byName["fetch_page"]; !ok {
		t.Error("Index() missing fetch_page")
	}
}
